package main

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/meal-recommendation-service/internal/catalog"
	"github.com/actuallystonmai/meal-recommendation-service/internal/config"
	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
	"github.com/actuallystonmai/meal-recommendation-service/internal/metrics"
	"github.com/actuallystonmai/meal-recommendation-service/internal/model"
	"github.com/actuallystonmai/meal-recommendation-service/internal/repository"
	"github.com/actuallystonmai/meal-recommendation-service/internal/service"
	"golang.org/x/sync/errgroup"
)

// loadEngine reads the catalog, scaler and model concurrently and checks that they agree
// on the feature layout. repo is only used for the postgres catalog source.
func loadEngine(ctx context.Context, cfg *config.Config, repo *repository.Repository) (*service.Engine, error) {
	var (
		foods    *catalog.Catalog
		scaler   *model.StandardScaler
		ensemble *model.TreeEnsemble
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := loadCatalog(ctx, cfg, repo)
		if err != nil {
			metrics.ResourceLoadFailures.WithLabelValues("catalog").Inc()
			return fmt.Errorf("load catalog: %w", err)
		}
		foods = c
		return nil
	})
	g.Go(func() error {
		s, err := model.LoadStandardScaler(cfg.ScalerPath)
		if err != nil {
			metrics.ResourceLoadFailures.WithLabelValues("scaler").Inc()
			return fmt.Errorf("load scaler %s: %w", cfg.ScalerPath, err)
		}
		scaler = s
		return nil
	})
	g.Go(func() error {
		m, err := model.LoadTreeEnsemble(cfg.ModelPath)
		if err != nil {
			metrics.ResourceLoadFailures.WithLabelValues("model").Inc()
			return fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
		}
		ensemble = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := scaler.CheckFeatureOrder(domain.FeatureOrder(), featureMatches); err != nil {
		metrics.ResourceLoadFailures.WithLabelValues("scaler").Inc()
		return nil, fmt.Errorf("scaler feature layout: %w", err)
	}
	if ensemble.NumFeature > 0 && ensemble.NumFeature != domain.FeatureCount {
		metrics.ResourceLoadFailures.WithLabelValues("model").Inc()
		return nil, fmt.Errorf("model expects %d features, have %d", ensemble.NumFeature, domain.FeatureCount)
	}

	metrics.CatalogItems.Set(float64(foods.Len()))
	return service.NewEngine(foods, model.Pipeline{Scaler: scaler, Regressor: ensemble}), nil
}

func loadCatalog(ctx context.Context, cfg *config.Config, repo *repository.Repository) (*catalog.Catalog, error) {
	if cfg.CatalogSource != config.CatalogSourcePostgres {
		return catalog.Load(cfg.CatalogPath)
	}
	if repo == nil {
		return nil, fmt.Errorf("postgres catalog source without a database connection")
	}
	items, err := repo.LoadFoods(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.New(items), nil
}

// featureMatches accepts the catalog's own header spellings for the nutrient columns and
// exact names for the user columns.
func featureMatches(pos int, stored string) bool {
	if pos < domain.NutrientCount {
		return catalog.IsNutrientHeader(domain.Nutrient(pos), stored)
	}
	return stored == domain.UserFieldNames[pos-domain.NutrientCount]
}
