package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
)

// Fingerprinter is implemented by scoring components whose output is fully determined by
// their parameters. Equal fingerprints mean equal scores for equal input.
type Fingerprinter interface {
	Fingerprint() string
}

type paramHash struct {
	h   hash.Hash
	buf [8]byte
}

func newParamHash(kind string) *paramHash {
	p := &paramHash{h: sha256.New()}
	p.str(kind)
	return p
}

func (p *paramHash) str(s string) {
	p.int(len(s))
	p.h.Write([]byte(s))
}

func (p *paramHash) int(n int) {
	binary.LittleEndian.PutUint64(p.buf[:], uint64(n))
	p.h.Write(p.buf[:])
}

func (p *paramHash) float(f float64) {
	binary.LittleEndian.PutUint64(p.buf[:], math.Float64bits(f))
	p.h.Write(p.buf[:])
}

func (p *paramHash) floats(v []float64) {
	p.int(len(v))
	for _, f := range v {
		p.float(f)
	}
}

func (p *paramHash) ints(v []int) {
	p.int(len(v))
	for _, n := range v {
		p.int(n)
	}
}

func (p *paramHash) sum() string {
	return hex.EncodeToString(p.h.Sum(nil))[:16]
}

func (s *StandardScaler) Fingerprint() string {
	p := newParamHash("standard_scaler")
	p.int(len(s.FeatureNames))
	for _, n := range s.FeatureNames {
		p.str(n)
	}
	p.floats(s.Mean)
	p.floats(s.Scale)
	return p.sum()
}

func (m *TreeEnsemble) Fingerprint() string {
	p := newParamHash("tree_ensemble")
	p.str(m.Objective)
	p.float(m.BaseScore)
	p.int(m.NumFeature)
	p.floats(m.Weights)
	p.int(len(m.Trees))
	for _, t := range m.Trees {
		p.ints(t.LeftChildren)
		p.ints(t.RightChildren)
		p.ints(t.SplitIndices)
		p.floats(t.SplitConditions)
		p.int(len(t.DefaultLeft))
		for _, d := range t.DefaultLeft {
			if d {
				p.int(1)
			} else {
				p.int(0)
			}
		}
	}
	return p.sum()
}

// Fingerprint combines the scaler and regressor fingerprints. A part that cannot
// describe its parameters is identified by its type only.
func (p Pipeline) Fingerprint() string {
	h := newParamHash("pipeline")
	h.str(partFingerprint(p.Scaler))
	h.str(partFingerprint(p.Regressor))
	return h.sum()
}

func partFingerprint(part any) string {
	if f, ok := part.(Fingerprinter); ok {
		return f.Fingerprint()
	}
	return fmt.Sprintf("%T", part)
}
