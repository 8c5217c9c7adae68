package datastore

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"bitquest/internal/models"
)

func CreateTableCollection(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Collection)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	// the collect-once invariant lives here, not in application checks
	_, err = db.NewCreateIndex().Model((*models.Collection)(nil)).Index("index_collection_chest_id_user_id").IfNotExists().Unique().Column("chest_id", "user_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Collection)(nil)).Index("index_collection_user_id_status").IfNotExists().Column("user_id", "status").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertCollection attempts the conditional insert backing collect-once.
// Returns false without error when the (chest_id, user_id) pair already
// exists.
func InsertCollection(ctx context.Context, db *bun.DB, collection *models.Collection) (bool, error) {
	res, err := db.NewInsert().Model(collection).On("CONFLICT (chest_id, user_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func GetPendingCollectionsByUserID(ctx context.Context, db *bun.DB, userID int64) ([]models.Collection, error) {
	var collections []models.Collection
	err := db.NewSelect().Model(&collections).
		Relation("Chest").
		Where("collection.user_id = ?", userID).
		Where("collection.status = ?", models.CollectionStatusPending).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return collections, nil
}

func GetCollectionsByUserID(ctx context.Context, db *bun.DB, userID int64) ([]models.Collection, error) {
	var collections []models.Collection
	err := db.NewSelect().Model(&collections).
		Relation("Chest").
		Where("collection.user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return collections, nil
}

// MarkCollectionsRedeemed flips the given collections to redeemed. Only
// pending rows are touched, so re-marking already-redeemed ids is a no-op.
func MarkCollectionsRedeemed(ctx context.Context, db *bun.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := db.NewUpdate().Model((*models.Collection)(nil)).
		Set("status = ?", models.CollectionStatusRedeemed).
		Set("redeemed_at = ?", time.Now()).
		Where("id IN (?)", bun.In(ids)).
		Where("status = ?", models.CollectionStatusPending).
		Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}
