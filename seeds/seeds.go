package seeds

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/meal-recommendation-service/internal/catalog"
	"github.com/actuallystonmai/meal-recommendation-service/internal/logging"
	"github.com/actuallystonmai/meal-recommendation-service/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Setup replaces the foods table with the rows of the catalog file at path.
func Setup(ctx context.Context, pool *pgxpool.Pool, path string) error {
	log := logging.Component("seed")

	c, err := catalog.Load(path)
	if err != nil {
		return fmt.Errorf("load seed catalog: %w", err)
	}

	// Truncate existing data before insert
	log.Info().Msg("truncating existing foods")
	if _, err := pool.Exec(ctx, `TRUNCATE foods RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	log.Info().Int("items", c.Len()).Str("path", path).Msg("inserting foods")
	if err := repository.NewRepository(pool).InsertFoods(ctx, c.Items()); err != nil {
		return fmt.Errorf("seed foods: %w", err)
	}

	log.Info().Msg("seeding complete")
	return nil
}
