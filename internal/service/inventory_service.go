package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Jorgegzze/marbleworldinventory/internal/dto"
	"github.com/Jorgegzze/marbleworldinventory/internal/model"
	"github.com/Jorgegzze/marbleworldinventory/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InventoryService owns the material rows and applies every state transition.
// All writes go through here; each transition is a single transaction, so
// callers never observe a half-applied split.
type InventoryService interface {
	Create(ctx context.Context, req dto.CreateMaterialRequest) (*dto.MaterialResponse, error)
	Get(ctx context.Context, id int) (*dto.MaterialResponse, error)
	List(ctx context.Context, filter dto.MaterialFilter) (*dto.MaterialListResponse, error)
	Update(ctx context.Context, id int, req dto.UpdateMaterialRequest) (*dto.MaterialResponse, error)
	Delete(ctx context.Context, id int) error

	Reserve(ctx context.Context, id, qty int) (*dto.MaterialResponse, error)
	Sell(ctx context.Context, id, qty int) error
	Return(ctx context.Context, id, qty int) (*dto.MaterialResponse, error)

	BulkCreate(ctx context.Context, req dto.BulkCreateRequest) (*dto.BulkCreateResponse, error)
	Movements(ctx context.Context, id int) ([]dto.StockMovementResponse, error)

	// Public catalog reads (redis-cached).
	CatalogList(ctx context.Context) ([]dto.MaterialResponse, error)
	CatalogLookup(ctx context.Context, materialID string) (*dto.MaterialResponse, error)
}

type inventoryService struct {
	repo      repository.MaterialRepository
	movements repository.MovementRepository
	rdb       *redis.Client
}

func NewInventoryService(repo repository.MaterialRepository, movements repository.MovementRepository, rdb *redis.Client) InventoryService {
	return &inventoryService{repo: repo, movements: movements, rdb: rdb}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *inventoryService) Create(ctx context.Context, req dto.CreateMaterialRequest) (*dto.MaterialResponse, error) {
	m := model.Material{
		MaterialID:   req.MaterialID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Block:        req.Block,
		Bundle:       req.Bundle,
		Dimensions:   req.Dimensions,
		Finish:       req.Finish,
		Presentation: req.Presentation,
		Price:        req.Price,
		ImageURL:     req.ImageURL,
		Quantity:     req.Quantity,
		Status:       model.StatusAvailable,
	}
	if req.Status != nil && *req.Status != "" {
		m.Status = *req.Status
	}
	m.InStock = m.Quantity > 0

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, &m); err != nil {
			return err
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			MaterialID:     m.ID,
			Kind:           model.MovementCreate,
			Delta:          m.Quantity,
			QuantityBefore: 0,
			QuantityAfter:  m.Quantity,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateCatalog(ctx, m.MaterialID)
	return materialToResponse(&m), nil
}

// ── Get / List ───────────────────────────────────────────────────────────────

func (s *inventoryService) Get(ctx context.Context, id int) (*dto.MaterialResponse, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrMaterialNotFound
	}
	return materialToResponse(m), nil
}

func (s *inventoryService) List(ctx context.Context, filter dto.MaterialFilter) (*dto.MaterialListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	materials, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MaterialResponse, 0, len(materials))
	for i := range materials {
		items = append(items, *materialToResponse(&materials[i]))
	}
	return &dto.MaterialListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Update ───────────────────────────────────────────────────────────────────

func (s *inventoryService) Update(ctx context.Context, id int, req dto.UpdateMaterialRequest) (*dto.MaterialResponse, error) {
	var m *model.Material
	var oldCode string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Snapshot under the row lock: Save writes every column, so a read
		// outside this transaction would resurrect quantities a concurrent
		// transition already changed.
		var err error
		m, err = s.repo.FindByIDTx(tx, id)
		if err != nil {
			return ErrMaterialNotFound
		}
		oldCode = m.MaterialID
		oldQty := m.Quantity

		if req.MaterialID != nil {
			m.MaterialID = *req.MaterialID
		}
		if req.Name != nil {
			m.Name = *req.Name
		}
		if req.Description != nil {
			m.Description = req.Description
		}
		if req.Category != nil {
			m.Category = req.Category
		}
		if req.Block != nil {
			m.Block = req.Block
		}
		if req.Bundle != nil {
			m.Bundle = req.Bundle
		}
		if req.Dimensions != nil {
			m.Dimensions = req.Dimensions
		}
		if req.Finish != nil {
			m.Finish = req.Finish
		}
		if req.Presentation != nil {
			m.Presentation = req.Presentation
		}
		if req.Price != nil {
			m.Price = req.Price
		}
		if req.ImageURL != nil {
			m.ImageURL = req.ImageURL
		}
		if req.Quantity != nil {
			m.Quantity = *req.Quantity
		}
		if req.Status != nil {
			m.Status = *req.Status
		}
		// Derived unless the patch supplies it explicitly.
		if req.InStock != nil {
			m.InStock = *req.InStock
		} else {
			m.InStock = m.Quantity > 0
		}

		if err := s.repo.UpdateTx(tx, m); err != nil {
			return err
		}
		if m.Quantity == oldQty {
			return nil
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			MaterialID:     m.ID,
			Kind:           model.MovementAdjust,
			Delta:          m.Quantity - oldQty,
			QuantityBefore: oldQty,
			QuantityAfter:  m.Quantity,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateCatalog(ctx, oldCode)
	if m.MaterialID != oldCode {
		s.invalidateCatalog(ctx, m.MaterialID)
	}
	return materialToResponse(m), nil
}

// ── Delete ───────────────────────────────────────────────────────────────────

func (s *inventoryService) Delete(ctx context.Context, id int) error {
	var code string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Locked read, so the recorded final quantity cannot be stale.
		m, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return ErrMaterialNotFound
		}
		code = m.MaterialID

		if err := s.repo.DeleteTx(tx, id); err != nil {
			return err
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			MaterialID:     id,
			Kind:           model.MovementDelete,
			Delta:          -m.Quantity,
			QuantityBefore: m.Quantity,
			QuantityAfter:  0,
		})
	})
	if txErr != nil {
		return txErr
	}

	s.invalidateCatalog(ctx, code)
	return nil
}

// ── Reserve ──────────────────────────────────────────────────────────────────
// A reservation does not change the source row's status. It splits the row:
// the source keeps quantity-qty units as available, and a new row is created
// with quantity=qty and status=reserved, sharing the same catalog code and
// descriptive fields.

func (s *inventoryService) Reserve(ctx context.Context, id, qty int) (*dto.MaterialResponse, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	var reserved model.Material
	var code string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		src, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return ErrMaterialNotFound
		}
		if qty > src.Quantity {
			return ErrInsufficientStock
		}
		code = src.MaterialID

		before := src.Quantity
		src.Quantity -= qty
		src.InStock = src.Quantity > 0
		if err := s.repo.UpdateTx(tx, src); err != nil {
			return err
		}

		reserved = cloneDescriptive(src)
		reserved.Quantity = qty
		reserved.Status = model.StatusReserved
		reserved.InStock = true
		if err := s.repo.CreateTx(tx, &reserved); err != nil {
			return err
		}

		if err := s.movements.CreateTx(tx, &model.StockMovement{
			MaterialID:     src.ID,
			Kind:           model.MovementReserve,
			Delta:          -qty,
			QuantityBefore: before,
			QuantityAfter:  src.Quantity,
			CounterpartID:  &reserved.ID,
		}); err != nil {
			return err
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			MaterialID:     reserved.ID,
			Kind:           model.MovementReserve,
			Delta:          qty,
			QuantityBefore: 0,
			QuantityAfter:  qty,
			CounterpartID:  &src.ID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateCatalog(ctx, code)
	return materialToResponse(&reserved), nil
}

// ── Sell ─────────────────────────────────────────────────────────────────────
// Reserved rows: selling the full quantity deletes the row, a partial sale
// decrements it. Any other row: decrement; status becomes "sold" only when the
// remainder is exactly 0, otherwise "available" — even if it previously was
// "out_of_stock". That input-driven policy is deliberate; there is no richer
// status lattice.

func (s *inventoryService) Sell(ctx context.Context, id, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	var code string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		row, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return ErrMaterialNotFound
		}
		if qty > row.Quantity {
			return ErrInsufficientStock
		}
		code = row.MaterialID
		before := row.Quantity

		if row.Status == model.StatusReserved {
			if qty == row.Quantity {
				if err := s.repo.DeleteTx(tx, row.ID); err != nil {
					return err
				}
			} else {
				row.Quantity -= qty
				if err := s.repo.UpdateTx(tx, row); err != nil {
					return err
				}
			}
		} else {
			row.Quantity -= qty
			if row.Quantity == 0 {
				row.Status = model.StatusSold
			} else {
				row.Status = model.StatusAvailable
			}
			row.InStock = row.Quantity > 0
			if err := s.repo.UpdateTx(tx, row); err != nil {
				return err
			}
		}

		return s.movements.CreateTx(tx, &model.StockMovement{
			MaterialID:     row.ID,
			Kind:           model.MovementSell,
			Delta:          -qty,
			QuantityBefore: before,
			QuantityAfter:  before - qty,
		})
	})
	if txErr != nil {
		return txErr
	}

	s.invalidateCatalog(ctx, code)
	return nil
}

// ── Return ───────────────────────────────────────────────────────────────────
// Moves previously reserved units back into the available pool: decrements the
// reserved row (deleting it at zero) and increments the available sibling with
// the same catalog code, cloning one if none exists.

func (s *inventoryService) Return(ctx context.Context, id, qty int) (*dto.MaterialResponse, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	var restocked model.Material
	var code string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		row, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return ErrMaterialNotFound
		}
		if row.Status != model.StatusReserved {
			return ErrNotReserved
		}
		if qty > row.Quantity {
			return ErrInsufficientStock
		}
		code = row.MaterialID
		before := row.Quantity

		if qty == row.Quantity {
			if err := s.repo.DeleteTx(tx, row.ID); err != nil {
				return err
			}
		} else {
			row.Quantity -= qty
			if err := s.repo.UpdateTx(tx, row); err != nil {
				return err
			}
		}

		sibling, err := s.repo.FindAvailableByMaterialIDTx(tx, row.MaterialID)
		if err == nil {
			siblingBefore := sibling.Quantity
			sibling.Quantity += qty
			sibling.InStock = true
			if err := s.repo.UpdateTx(tx, sibling); err != nil {
				return err
			}
			restocked = *sibling
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				MaterialID:     sibling.ID,
				Kind:           model.MovementReturn,
				Delta:          qty,
				QuantityBefore: siblingBefore,
				QuantityAfter:  sibling.Quantity,
				CounterpartID:  &row.ID,
			}); err != nil {
				return err
			}
		} else {
			clone := cloneDescriptive(row)
			clone.Quantity = qty
			clone.Status = model.StatusAvailable
			clone.InStock = true
			if err := s.repo.CreateTx(tx, &clone); err != nil {
				return err
			}
			restocked = clone
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				MaterialID:     clone.ID,
				Kind:           model.MovementReturn,
				Delta:          qty,
				QuantityBefore: 0,
				QuantityAfter:  qty,
				CounterpartID:  &row.ID,
			}); err != nil {
				return err
			}
		}

		return s.movements.CreateTx(tx, &model.StockMovement{
			MaterialID:     row.ID,
			Kind:           model.MovementReturn,
			Delta:          -qty,
			QuantityBefore: before,
			QuantityAfter:  before - qty,
			CounterpartID:  &restocked.ID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidateCatalog(ctx, code)
	return materialToResponse(&restocked), nil
}

// ── Bulk import ──────────────────────────────────────────────────────────────
// Rows arrive pre-parsed from the spreadsheet on the client side; each maps to
// a plain Create. Failing rows are reported individually, the rest go through.

func (s *inventoryService) BulkCreate(ctx context.Context, req dto.BulkCreateRequest) (*dto.BulkCreateResponse, error) {
	resp := &dto.BulkCreateResponse{}
	for i, row := range req.Rows {
		if _, err := s.Create(ctx, row); err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.BulkRowError{
				Row:    i,
				Detail: fmt.Sprintf("%s: %v", row.MaterialID, err),
			})
			continue
		}
		resp.Created++
	}
	log.Info().Int("created", resp.Created).Int("failed", resp.Failed).Msg("bulk import finished")
	return resp, nil
}

// ── Movements ────────────────────────────────────────────────────────────────

// Movements lists the audit trail of a row. It stays readable after the row
// is deleted; only ids with no history at all are a 404.
func (s *inventoryService) Movements(ctx context.Context, id int) ([]dto.StockMovementResponse, error) {
	movements, err := s.movements.ListByMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(movements) == 0 {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return nil, ErrMaterialNotFound
		}
	}
	resp := make([]dto.StockMovementResponse, 0, len(movements))
	for _, mv := range movements {
		resp = append(resp, dto.StockMovementResponse{
			ID:             mv.ID,
			MaterialID:     mv.MaterialID,
			Kind:           mv.Kind,
			Delta:          mv.Delta,
			QuantityBefore: mv.QuantityBefore,
			QuantityAfter:  mv.QuantityAfter,
			CounterpartID:  mv.CounterpartID,
			Note:           mv.Note,
			CreatedAt:      mv.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// cloneDescriptive copies the catalog code and descriptive attributes of a row
// into a fresh one with no id, quantity or status.
func cloneDescriptive(src *model.Material) model.Material {
	return model.Material{
		MaterialID:   src.MaterialID,
		Name:         src.Name,
		Description:  src.Description,
		Category:     src.Category,
		Block:        src.Block,
		Bundle:       src.Bundle,
		Dimensions:   src.Dimensions,
		Finish:       src.Finish,
		Presentation: src.Presentation,
		Price:        src.Price,
		ImageURL:     src.ImageURL,
	}
}

func materialToResponse(m *model.Material) *dto.MaterialResponse {
	return &dto.MaterialResponse{
		ID:           m.ID,
		MaterialID:   m.MaterialID,
		Name:         m.Name,
		Description:  m.Description,
		Category:     m.Category,
		Block:        m.Block,
		Bundle:       m.Bundle,
		Dimensions:   m.Dimensions,
		Finish:       m.Finish,
		Presentation: m.Presentation,
		Price:        m.Price,
		ImageURL:     m.ImageURL,
		Quantity:     m.Quantity,
		InStock:      m.InStock,
		Status:       m.Status,
	}
}

// invalidateCatalog drops the cached catalog entries touched by a mutation.
// Best effort: a failed invalidation only delays freshness until the TTL.
func (s *inventoryService) invalidateCatalog(ctx context.Context, materialID string) {
	if s.rdb == nil {
		return
	}
	keys := []string{catalogListCacheKey}
	if materialID != "" {
		keys = append(keys, catalogItemCacheKey(materialID))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("material_id", materialID).Msg("catalog cache invalidation failed")
	}
}
