package repository

import (
	"context"

	"github.com/Jorgegzze/marbleworldinventory/internal/dto"
	"github.com/Jorgegzze/marbleworldinventory/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// clauseLocking is SELECT ... FOR UPDATE, applied to every in-transaction read.
var clauseLocking = clause.Locking{Strength: "UPDATE"}

// MaterialRepository defines the data access contract for materials.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type MaterialRepository interface {
	FindByID(ctx context.Context, id int) (*model.Material, error)
	// FindAvailableByMaterialID resolves a catalog code to its available row.
	// Reserved/sold clones share the code, so the status filter is essential.
	FindAvailableByMaterialID(ctx context.Context, materialID string) (*model.Material, error)
	List(ctx context.Context, filter dto.MaterialFilter) ([]model.Material, int64, error)

	// Every write goes through a Tx variant, inside the transaction of the
	// state change it belongs to.
	CreateTx(tx *gorm.DB, m *model.Material) error
	FindByIDTx(tx *gorm.DB, id int) (*model.Material, error)
	FindAvailableByMaterialIDTx(tx *gorm.DB, materialID string) (*model.Material, error)
	UpdateTx(tx *gorm.DB, m *model.Material) error
	DeleteTx(tx *gorm.DB, id int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type materialRepo struct{ db *gorm.DB }

func NewMaterialRepository(db *gorm.DB) MaterialRepository { return &materialRepo{db: db} }

func (r *materialRepo) FindByID(ctx context.Context, id int) (*model.Material, error) {
	var m model.Material
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *materialRepo) FindAvailableByMaterialID(ctx context.Context, materialID string) (*model.Material, error) {
	var m model.Material
	err := r.db.WithContext(ctx).
		Where("material_id = ? AND status = ?", materialID, model.StatusAvailable).
		First(&m).Error
	return &m, err
}

func (r *materialRepo) List(ctx context.Context, filter dto.MaterialFilter) ([]model.Material, int64, error) {
	var materials []model.Material
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Material{})

	if filter.MaterialID != "" {
		q = q.Where("material_id = ?", filter.MaterialID)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	switch filter.InStock {
	case "true":
		q = q.Where("in_stock = true")
	case "false":
		q = q.Where("in_stock = false")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("id ASC").Limit(filter.Limit).Offset(offset).Find(&materials).Error
	return materials, total, err
}

func (r *materialRepo) CreateTx(tx *gorm.DB, m *model.Material) error {
	return tx.Create(m).Error
}

func (r *materialRepo) FindByIDTx(tx *gorm.DB, id int) (*model.Material, error) {
	var m model.Material
	// Row lock so two concurrent reserves cannot read the same pre-decrement
	// quantity and double-allocate stock.
	err := tx.Clauses(clauseLocking).First(&m, id).Error
	return &m, err
}

func (r *materialRepo) FindAvailableByMaterialIDTx(tx *gorm.DB, materialID string) (*model.Material, error) {
	var m model.Material
	err := tx.Clauses(clauseLocking).
		Where("material_id = ? AND status = ?", materialID, model.StatusAvailable).
		First(&m).Error
	return &m, err
}

func (r *materialRepo) UpdateTx(tx *gorm.DB, m *model.Material) error {
	return tx.Save(m).Error
}

func (r *materialRepo) DeleteTx(tx *gorm.DB, id int) error {
	return tx.Delete(&model.Material{}, id).Error
}

func (r *materialRepo) DB() *gorm.DB { return r.db }
