package repository

import (
	"context"

	"github.com/Jorgegzze/marbleworldinventory/internal/model"

	"gorm.io/gorm"
)

// MovementRepository persists the stock movement audit trail.
type MovementRepository interface {
	// CreateTx writes a movement inside the transaction of the state change
	// it documents.
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	ListByMaterial(ctx context.Context, materialRowID int) ([]model.StockMovement, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository { return &movementRepo{db: db} }

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *movementRepo) ListByMaterial(ctx context.Context, materialRowID int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialRowID).
		Order("id ASC").
		Find(&movements).Error
	return movements, err
}
