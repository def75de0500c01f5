package model

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// TreeEnsemble evaluates an XGBoost model saved with Booster.save_model("*.json").
type TreeEnsemble struct {
	Trees      []Tree
	Weights    []float64 // per-tree weights, dart only
	BaseScore  float64
	NumFeature int
	Objective  string
}

// Tree is one regression tree in XGBoost's array layout. Node 0 is the root; a node is a
// leaf when LeftChildren[n] == -1, and its value is SplitConditions[n].
type Tree struct {
	LeftChildren    []int
	RightChildren   []int
	SplitIndices    []int
	SplitConditions []float64
	DefaultLeft     []bool
}

type flexBool bool

// UnmarshalJSON accepts both true/false and 0/1, which differ across XGBoost versions.
func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

type xgbTree struct {
	LeftChildren    []int      `json:"left_children"`
	RightChildren   []int      `json:"right_children"`
	SplitIndices    []int      `json:"split_indices"`
	SplitConditions []float64  `json:"split_conditions"`
	DefaultLeft     []flexBool `json:"default_left"`
}

type xgbTrees struct {
	Trees []xgbTree `json:"trees"`
}

type xgbDart struct {
	Model xgbTrees `json:"model"`
}

type xgbFile struct {
	Learner struct {
		GradientBooster struct {
			Name       string    `json:"name"`
			Model      xgbTrees  `json:"model"`
			GBTree     *xgbDart  `json:"gbtree"`
			WeightDrop []float64 `json:"weight_drop"`
		} `json:"gradient_booster"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseTreeEnsemble(data)
}

func ParseTreeEnsemble(data []byte) (*TreeEnsemble, error) {
	var raw xgbFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	learner := raw.Learner
	booster := learner.GradientBooster

	var trees []xgbTree
	var weights []float64
	switch booster.Name {
	case "gbtree":
		trees = booster.Model.Trees
	case "dart":
		if booster.GBTree == nil {
			return nil, errors.New("dart model without gbtree section")
		}
		trees = booster.GBTree.Model.Trees
		weights = booster.WeightDrop
		if len(weights) != len(trees) {
			return nil, fmt.Errorf("dart model has %d weights for %d trees", len(weights), len(trees))
		}
	default:
		return nil, fmt.Errorf("unsupported booster %q", booster.Name)
	}

	if n := parseIntParam(learner.LearnerModelParam.NumClass); n > 1 {
		return nil, fmt.Errorf("multi-class model (%d classes) cannot produce a single score", n)
	}

	baseScore, err := parseBaseScore(learner.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, err
	}
	if learner.Objective.Name == "" {
		return nil, errors.New("model has no objective")
	}
	link, err := objectiveLink(learner.Objective.Name)
	if err != nil {
		return nil, err
	}
	switch {
	case link == logisticLink && (baseScore <= 0 || baseScore >= 1):
		return nil, fmt.Errorf("base_score %g outside (0, 1) for %s", baseScore, learner.Objective.Name)
	case link == logLink && baseScore <= 0:
		return nil, fmt.Errorf("base_score %g not positive for %s", baseScore, learner.Objective.Name)
	}

	m := &TreeEnsemble{
		Trees:      make([]Tree, 0, len(trees)),
		Weights:    weights,
		BaseScore:  baseScore,
		NumFeature: parseIntParam(learner.LearnerModelParam.NumFeature),
		Objective:  learner.Objective.Name,
	}
	for i, t := range trees {
		tree, err := convertTree(t)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.Trees = append(m.Trees, tree)
	}
	return m, nil
}

func convertTree(t xgbTree) (Tree, error) {
	n := len(t.LeftChildren)
	if n == 0 {
		return Tree{}, errors.New("empty tree")
	}
	if len(t.RightChildren) != n || len(t.SplitIndices) != n || len(t.SplitConditions) != n || len(t.DefaultLeft) != n {
		return Tree{}, errors.New("node arrays differ in length")
	}

	defaultLeft := make([]bool, n)
	for i, b := range t.DefaultLeft {
		defaultLeft[i] = bool(b)
	}
	for node := 0; node < n; node++ {
		if t.LeftChildren[node] == -1 {
			continue
		}
		// Children always come after their parent, which also rules out cycles.
		l, r := t.LeftChildren[node], t.RightChildren[node]
		if l <= node || l >= n || r <= node || r >= n {
			return Tree{}, fmt.Errorf("node %d has invalid children %d/%d", node, l, r)
		}
		if t.SplitIndices[node] < 0 {
			return Tree{}, fmt.Errorf("node %d has negative split index", node)
		}
	}

	return Tree{
		LeftChildren:    t.LeftChildren,
		RightChildren:   t.RightChildren,
		SplitIndices:    t.SplitIndices,
		SplitConditions: t.SplitConditions,
		DefaultLeft:     defaultLeft,
	}, nil
}

// leaf walks the tree for one row and returns the leaf value.
func (t *Tree) leaf(row []float64) (float64, error) {
	node := 0
	for t.LeftChildren[node] != -1 {
		f := t.SplitIndices[node]
		if f >= len(row) {
			return 0, inferenceErrorf("split on feature %d but row has %d features", f, len(row))
		}
		v := row[f]
		switch {
		case math.IsNaN(v):
			if t.DefaultLeft[node] {
				node = t.LeftChildren[node]
			} else {
				node = t.RightChildren[node]
			}
		case v < t.SplitConditions[node]:
			node = t.LeftChildren[node]
		default:
			node = t.RightChildren[node]
		}
	}
	return t.SplitConditions[node], nil
}

func (m *TreeEnsemble) Predict(x [][]float64) ([]float64, error) {
	link, err := objectiveLink(m.Objective)
	if err != nil {
		return nil, inferenceErrorf("%v", err)
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) < m.NumFeature {
			return nil, inferenceErrorf("row %d has %d features, model expects %d", i, len(row), m.NumFeature)
		}
		score, err := m.predictRow(row, link)
		if err != nil {
			return nil, err
		}
		out[i] = score
	}
	return out, nil
}

func (m *TreeEnsemble) predictRow(row []float64, link linkFunc) (float64, error) {
	var sum float64
	for i := range m.Trees {
		v, err := m.Trees[i].leaf(row)
		if err != nil {
			return 0, err
		}
		if m.Weights != nil {
			v *= m.Weights[i]
		}
		sum += v
	}

	switch link {
	case logisticLink:
		return sigmoid(sum + logit(m.BaseScore)), nil
	case logLink:
		return math.Exp(sum + math.Log(m.BaseScore)), nil
	default:
		return sum + m.BaseScore, nil
	}
}

// linkFunc maps the summed leaf margin to a prediction.
type linkFunc int

const (
	identityLink linkFunc = iota
	logisticLink
	logLink
)

// objectiveLink returns the output transform of an objective. An empty objective means
// a plain regression ensemble.
func objectiveLink(objective string) (linkFunc, error) {
	switch objective {
	case "", "reg:squarederror", "reg:linear", "reg:pseudohubererror", "reg:absoluteerror", "reg:squaredlogerror":
		return identityLink, nil
	case "reg:logistic", "binary:logistic":
		return logisticLink, nil
	case "count:poisson", "reg:gamma", "reg:tweedie":
		return logLink, nil
	}
	return 0, fmt.Errorf("unsupported objective %q", objective)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// parseBaseScore accepts "5E-1" and the bracketed "[5E-1]" written by newer XGBoost.
func parseBaseScore(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return 0.5, nil
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid base_score %q: %w", s, err)
	}
	return f, nil
}

func parseIntParam(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
