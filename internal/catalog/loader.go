package catalog

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
)

var ErrUnsupportedFormat = errors.New("unsupported catalog format")

const (
	colName = iota
	colCategory
	colEnergy
	colCarbohydrate
	colProtein
	colFat
	colSugar
	colSodium
	columnCount
)

// Accepted header spellings per column. The Korean headers are the ones of the public
// food nutrition database the model was trained on.
var headerAliases = [columnCount][]string{
	colName:         {"음식명", "name", "food_name"},
	colCategory:     {"대표식품명", "category"},
	colEnergy:       {"에너지(kcal)", "energy_kcal", "energy"},
	colCarbohydrate: {"탄수화물(g)", "carbohydrate_g", "carbohydrate"},
	colProtein:      {"단백질(g)", "protein_g", "protein"},
	colFat:          {"지방(g)", "fat_g", "fat"},
	colSugar:        {"당류(g)", "sugar_g", "sugar"},
	colSodium:       {"나트륨(mg)", "sodium_mg", "sodium"},
}

// IsNutrientHeader reports whether header names the nutrient at position n.
func IsNutrientHeader(n domain.Nutrient, header string) bool {
	col := colEnergy + int(n)
	for _, alias := range headerAliases[col] {
		if normalizeHeader(header) == alias {
			return true
		}
	}
	return false
}

// Load reads a catalog from a .csv or .xlsx file.
func Load(path string) (*Catalog, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}

	items, err := FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return New(items), nil
}

// FromRows converts a header row followed by data rows into food items. Blank rows are
// skipped; missing or unparseable numeric cells become 0.
func FromRows(rows [][]string) ([]domain.FoodItem, error) {
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}

	index, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	items := make([]domain.FoodItem, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		item := domain.FoodItem{
			Name:     strings.TrimSpace(cell(row, index[colName])),
			Category: strings.TrimSpace(cell(row, index[colCategory])),
		}
		for n := 0; n < domain.NutrientCount; n++ {
			item.Nutrients[n] = parseNutrient(cell(row, index[colEnergy+n]))
		}
		items = append(items, item)
	}
	return items, nil
}

func mapHeader(header []string) ([columnCount]int, error) {
	var index [columnCount]int
	for i := range index {
		index[i] = -1
	}

	for pos, raw := range header {
		h := normalizeHeader(raw)
		for col, aliases := range headerAliases {
			if index[col] != -1 {
				continue
			}
			for _, alias := range aliases {
				if h == alias {
					index[col] = pos
					break
				}
			}
		}
	}

	var missing []string
	for col, pos := range index {
		if pos == -1 {
			missing = append(missing, headerAliases[col][0])
		}
	}
	if len(missing) > 0 {
		return index, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.TrimSpace(s))
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNutrient maps empty, NaN, infinite, negative and garbage cells to 0.
func parseNutrient(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
