package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
)

// CatalogRepository loads card, ability and arena definitions from the
// database. Rows store the definition payloads as JSONB so the catalog can
// evolve without migrations for every new ability parameter.
type CatalogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *DB, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{db: db, logger: logger}
}

// Load reads all definitions and builds a validated catalog. When the tables
// are empty the built-in default catalog is returned so a fresh deployment
// can serve matches immediately.
func (r *CatalogRepository) Load(ctx context.Context) (*catalog.Catalog, error) {
	abilities, err := loadDefs[catalog.AbilityDef](ctx, r.db, `SELECT payload FROM catalog_abilities`)
	if err != nil {
		return nil, err
	}
	cards, err := loadDefs[catalog.CardDef](ctx, r.db, `SELECT payload FROM catalog_cards`)
	if err != nil {
		return nil, err
	}
	arenas, err := loadDefs[catalog.ArenaDef](ctx, r.db, `SELECT payload FROM catalog_arenas`)
	if err != nil {
		return nil, err
	}

	if len(abilities) == 0 && len(cards) == 0 && len(arenas) == 0 {
		r.logger.Info("catalog tables empty, using built-in defaults")
		return catalog.Default(), nil
	}

	cat, err := catalog.New(abilities, cards, arenas)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	r.logger.Info("catalog loaded",
		zap.Int("abilities", len(abilities)),
		zap.Int("cards", len(cards)),
		zap.Int("arenas", len(arenas)),
	)
	return cat, nil
}

func loadDefs[T any](ctx context.Context, db *DB, query string) ([]T, error) {
	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query catalog rows: %w", err)
	}
	defer rows.Close()

	var defs []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		var def T
		if err := json.Unmarshal(payload, &def); err != nil {
			return nil, fmt.Errorf("decode catalog row: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}
