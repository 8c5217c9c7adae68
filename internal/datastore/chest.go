package datastore

import (
	"context"

	"github.com/uptrace/bun"

	"bitquest/internal/models"
)

func CreateTableChest(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Chest)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Chest)(nil)).Index("index_chest_created_at").IfNotExists().Column("created_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertChest(ctx context.Context, db *bun.DB, chest *models.Chest) error {
	_, err := db.NewInsert().Model(chest).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

func GetChestByID(ctx context.Context, db *bun.DB, id string) (*models.Chest, error) {
	var chest models.Chest
	err := db.NewSelect().Model(&chest).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &chest, nil
}

// GetChestsWithUserCollections loads every chest with the joined collections
// narrowed to userID, so callers can derive isCollected from len(Collections).
// A zero userID is an anonymous caller: no collections are joined and every
// chest reads as uncollected.
func GetChestsWithUserCollections(ctx context.Context, db *bun.DB, userID int64) ([]models.Chest, error) {
	var chests []models.Chest
	q := db.NewSelect().Model(&chests)
	if userID != 0 {
		q = q.Relation("Collections", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("user_id = ?", userID)
		})
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, err
	}

	return chests, nil
}
