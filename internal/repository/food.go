package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
)

// insertBatchSize keeps one INSERT under the 65535 bind parameter limit.
const insertBatchSize = 1000

// LoadFoods returns the whole catalog in insertion order. NULL nutrients read as 0.
func (r *Repository) LoadFoods(ctx context.Context) ([]domain.FoodItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, category,
			COALESCE(energy, 0), COALESCE(carbohydrate, 0), COALESCE(protein, 0),
			COALESCE(fat, 0), COALESCE(sugar, 0), COALESCE(sodium, 0)
		FROM foods
		ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query foods: %w", err)
	}
	defer rows.Close()

	var items []domain.FoodItem
	for rows.Next() {
		var f domain.FoodItem
		n := &f.Nutrients
		if err := rows.Scan(&f.Name, &f.Category,
			&n[domain.Energy], &n[domain.Carbohydrate], &n[domain.Protein],
			&n[domain.Fat], &n[domain.Sugar], &n[domain.Sodium]); err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		items = append(items, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over foods: %w", err)
	}
	return items, nil
}

// Count total foods
func (r *Repository) CountFoods(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM foods`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count foods: %w", err)
	}
	return total, nil
}

// InsertFoods appends items in order, in multi-row batches.
func (r *Repository) InsertFoods(ctx context.Context, items []domain.FoodItem) error {
	for start := 0; start < len(items); start += insertBatchSize {
		end := min(start+insertBatchSize, len(items))
		query, args := insertFoodsQuery(items[start:end])
		if _, err := r.pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert foods %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func insertFoodsQuery(items []domain.FoodItem) (string, []any) {
	const cols = 2 + domain.NutrientCount

	rows := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*cols)
	for _, f := range items {
		base := len(args)
		placeholders := make([]string, cols)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
		}
		rows = append(rows, "("+strings.Join(placeholders, ", ")+")")

		args = append(args, f.Name, f.Category)
		for _, v := range f.Nutrients {
			args = append(args, v)
		}
	}

	query := "INSERT INTO foods (name, category, energy, carbohydrate, protein, fat, sugar, sodium) VALUES " +
		strings.Join(rows, ", ")
	return query, args
}
