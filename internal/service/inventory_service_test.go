package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/Jorgegzze/marbleworldinventory/internal/dto"
	"github.com/Jorgegzze/marbleworldinventory/internal/model"
	"github.com/Jorgegzze/marbleworldinventory/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory MaterialRepository stub ────────────────────────────────────────

type stubMaterialRepo struct {
	materials map[int]*model.Material
	nextID    int
}

func newStubMaterialRepo() *stubMaterialRepo {
	return &stubMaterialRepo{materials: make(map[int]*model.Material), nextID: 1}
}

func (r *stubMaterialRepo) CreateTx(_ *gorm.DB, m *model.Material) error {
	if m.ID == 0 {
		m.ID = r.nextID
		r.nextID++
	}
	r.materials[m.ID] = m
	return nil
}

func (r *stubMaterialRepo) FindByID(_ context.Context, id int) (*model.Material, error) {
	return r.FindByIDTx(nil, id)
}

func (r *stubMaterialRepo) FindByIDTx(_ *gorm.DB, id int) (*model.Material, error) {
	m, ok := r.materials[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return m, nil
}

func (r *stubMaterialRepo) FindAvailableByMaterialID(_ context.Context, code string) (*model.Material, error) {
	return r.FindAvailableByMaterialIDTx(nil, code)
}

func (r *stubMaterialRepo) FindAvailableByMaterialIDTx(_ *gorm.DB, code string) (*model.Material, error) {
	for _, id := range r.sortedIDs() {
		m := r.materials[id]
		if m.MaterialID == code && m.Status == model.StatusAvailable {
			return m, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *stubMaterialRepo) List(_ context.Context, filter dto.MaterialFilter) ([]model.Material, int64, error) {
	var result []model.Material
	for _, id := range r.sortedIDs() {
		m := r.materials[id]
		if filter.MaterialID != "" && m.MaterialID != filter.MaterialID {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if filter.InStock == "true" && !m.InStock {
			continue
		}
		if filter.InStock == "false" && m.InStock {
			continue
		}
		result = append(result, *m)
	}
	return result, int64(len(result)), nil
}

func (r *stubMaterialRepo) UpdateTx(_ *gorm.DB, m *model.Material) error {
	if _, ok := r.materials[m.ID]; !ok {
		return errors.New("record not found")
	}
	r.materials[m.ID] = m
	return nil
}

func (r *stubMaterialRepo) DeleteTx(_ *gorm.DB, id int) error {
	delete(r.materials, id)
	return nil
}

// In-memory stub: a nil DB makes runTx invoke the callback directly.
func (r *stubMaterialRepo) DB() *gorm.DB { return nil }

func (r *stubMaterialRepo) sortedIDs() []int {
	ids := make([]int, 0, len(r.materials))
	for id := range r.materials {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

var _ repository.MaterialRepository = (*stubMaterialRepo)(nil)

// unlockedReadRepo fails every read that does not hold the row lock. Wiring a
// service to it proves its writes snapshot the row inside the transaction.
type unlockedReadRepo struct{ *stubMaterialRepo }

func (r *unlockedReadRepo) FindByID(context.Context, int) (*model.Material, error) {
	return nil, errors.New("read outside transaction")
}

// ── In-memory MovementRepository stub ────────────────────────────────────────

type stubMovementRepo struct {
	movements []model.StockMovement
	nextID    int
}

func newStubMovementRepo() *stubMovementRepo { return &stubMovementRepo{nextID: 1} }

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	m.ID = r.nextID
	r.nextID++
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByMaterial(_ context.Context, materialRowID int) ([]model.StockMovement, error) {
	var result []model.StockMovement
	for _, m := range r.movements {
		if m.MaterialID == materialRowID {
			result = append(result, m)
		}
	}
	return result, nil
}

var _ repository.MovementRepository = (*stubMovementRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func newTestInventory() (InventoryService, *stubMaterialRepo, *stubMovementRepo) {
	repo := newStubMaterialRepo()
	movements := newStubMovementRepo()
	return NewInventoryService(repo, movements, nil), repo, movements
}

func seedMaterial(repo *stubMaterialRepo, code string, qty int, status string) *model.Material {
	m := &model.Material{
		MaterialID: code,
		Name:       "Carrara White Slab",
		Quantity:   qty,
		InStock:    qty > 0,
		Status:     status,
	}
	_ = repo.CreateTx(nil, m)
	return m
}

// assertInStockInvariant checks in_stock == (quantity > 0) on every row.
func assertInStockInvariant(t *testing.T, repo *stubMaterialRepo) {
	t.Helper()
	for _, m := range repo.materials {
		assert.Equal(t, m.Quantity > 0, m.InStock, "row %d: in_stock must track quantity", m.ID)
	}
}

// ── Create / Get / Update / Delete ───────────────────────────────────────────

func TestCreateDefaults(t *testing.T) {
	svc, repo, _ := newTestInventory()

	resp, err := svc.Create(context.Background(), dto.CreateMaterialRequest{
		MaterialID: "M-001",
		Name:       "Travertine Block",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Quantity)
	assert.Equal(t, model.StatusAvailable, resp.Status)
	assert.False(t, resp.InStock)
	assert.NotZero(t, resp.ID)
	assertInStockInvariant(t, repo)
}

func TestCreateRoundTrip(t *testing.T) {
	svc, _, _ := newTestInventory()

	desc := "polished, 2cm"
	created, err := svc.Create(context.Background(), dto.CreateMaterialRequest{
		MaterialID:  "M-002",
		Name:        "Nero Marquina",
		Description: &desc,
		Quantity:    7,
	})
	require.NoError(t, err)
	assert.True(t, created.InStock)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	svc, _, _ := newTestInventory()

	first, err := svc.Create(context.Background(), dto.CreateMaterialRequest{MaterialID: "A", Name: "a"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), dto.CreateMaterialRequest{MaterialID: "B", Name: "b"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestGetNotFound(t *testing.T) {
	svc, _, _ := newTestInventory()
	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestUpdateRecomputesInStock(t *testing.T) {
	svc, repo, _ := newTestInventory()
	m := seedMaterial(repo, "M-010", 5, model.StatusAvailable)

	zero := 0
	resp, err := svc.Update(context.Background(), m.ID, dto.UpdateMaterialRequest{Quantity: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Quantity)
	assert.False(t, resp.InStock)
}

func TestUpdateExplicitInStockWins(t *testing.T) {
	svc, repo, _ := newTestInventory()
	m := seedMaterial(repo, "M-011", 5, model.StatusAvailable)

	inStock := false
	resp, err := svc.Update(context.Background(), m.ID, dto.UpdateMaterialRequest{InStock: &inStock})
	require.NoError(t, err)
	assert.False(t, resp.InStock)
	assert.Equal(t, 5, resp.Quantity)
}

func TestUpdateStatusThroughEdit(t *testing.T) {
	svc, repo, _ := newTestInventory()
	m := seedMaterial(repo, "M-012", 3, model.StatusAvailable)

	zero := 0
	status := model.StatusOutOfStock
	resp, err := svc.Update(context.Background(), m.ID, dto.UpdateMaterialRequest{
		Quantity: &zero,
		Status:   &status,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOutOfStock, resp.Status)
	assert.False(t, resp.InStock)
}

func TestUpdateReadsRowInsideTransaction(t *testing.T) {
	// An edit that snapshots the row before its transaction would write the
	// stale quantity back over a concurrent reserve/sell. The service must
	// take its snapshot through the locked in-transaction read only.
	repo := newStubMaterialRepo()
	m := seedMaterial(repo, "M-013", 10, model.StatusAvailable)
	svc := NewInventoryService(&unlockedReadRepo{repo}, newStubMovementRepo(), nil)

	name := "Calacatta Gold"
	resp, err := svc.Update(context.Background(), m.ID, dto.UpdateMaterialRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Calacatta Gold", resp.Name)
	assert.Equal(t, 10, resp.Quantity)
}

func TestDeleteReadsRowInsideTransaction(t *testing.T) {
	repo := newStubMaterialRepo()
	m := seedMaterial(repo, "M-014", 4, model.StatusAvailable)
	svc := NewInventoryService(&unlockedReadRepo{repo}, newStubMovementRepo(), nil)

	require.NoError(t, svc.Delete(context.Background(), m.ID))
	assert.Empty(t, repo.materials)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestInventory()
	name := "x"
	_, err := svc.Update(context.Background(), 42, dto.UpdateMaterialRequest{Name: &name})
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestInventory()
	m := seedMaterial(repo, "M-020", 2, model.StatusAvailable)

	require.NoError(t, svc.Delete(context.Background(), m.ID))
	_, err := svc.Get(context.Background(), m.ID)
	assert.ErrorIs(t, err, ErrMaterialNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), m.ID), ErrMaterialNotFound)
}

// ── Reserve ──────────────────────────────────────────────────────────────────

func TestReserveSplitsRow(t *testing.T) {
	svc, repo, _ := newTestInventory()
	src := seedMaterial(repo, "M1", 10, model.StatusAvailable)

	reserved, err := svc.Reserve(context.Background(), src.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, model.StatusReserved, reserved.Status)
	assert.Equal(t, 4, reserved.Quantity)
	assert.Equal(t, "M1", reserved.MaterialID)
	assert.True(t, reserved.InStock)
	assert.NotEqual(t, src.ID, reserved.ID)

	source := repo.materials[src.ID]
	assert.Equal(t, 6, source.Quantity)
	assert.Equal(t, model.StatusAvailable, source.Status)

	// Quantity is conserved across the split.
	assert.Equal(t, 10, source.Quantity+reserved.Quantity)
	assertInStockInvariant(t, repo)
}

func TestReserveFullQuantityAllowed(t *testing.T) {
	svc, repo, _ := newTestInventory()
	src := seedMaterial(repo, "M2", 3, model.StatusAvailable)

	reserved, err := svc.Reserve(context.Background(), src.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, reserved.Quantity)

	source := repo.materials[src.ID]
	assert.Equal(t, 0, source.Quantity)
	assert.False(t, source.InStock)
	assertInStockInvariant(t, repo)
}

func TestReserveRejectedLeavesStoreUnchanged(t *testing.T) {
	svc, repo, movements := newTestInventory()
	src := seedMaterial(repo, "M3", 5, model.StatusAvailable)

	_, err := svc.Reserve(context.Background(), src.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.Reserve(context.Background(), src.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Reserve(context.Background(), 404, 1)
	assert.ErrorIs(t, err, ErrMaterialNotFound)

	assert.Len(t, repo.materials, 1)
	assert.Equal(t, 5, repo.materials[src.ID].Quantity)
	assert.Empty(t, movements.movements)
}

// ── Sell ─────────────────────────────────────────────────────────────────────

func TestSellReservedFullDeletesRow(t *testing.T) {
	svc, repo, _ := newTestInventory()
	row := seedMaterial(repo, "M4", 4, model.StatusReserved)

	require.NoError(t, svc.Sell(context.Background(), row.ID, 4))
	_, exists := repo.materials[row.ID]
	assert.False(t, exists)
}

func TestSellReservedPartialDecrements(t *testing.T) {
	svc, repo, _ := newTestInventory()
	row := seedMaterial(repo, "M5", 4, model.StatusReserved)

	require.NoError(t, svc.Sell(context.Background(), row.ID, 1))
	got := repo.materials[row.ID]
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, model.StatusReserved, got.Status)
	assertInStockInvariant(t, repo)
}

func TestSellAvailableToZeroKeepsRow(t *testing.T) {
	svc, repo, _ := newTestInventory()
	row := seedMaterial(repo, "M6", 6, model.StatusAvailable)

	require.NoError(t, svc.Sell(context.Background(), row.ID, 6))
	got := repo.materials[row.ID]
	require.NotNil(t, got, "plain sell of an available row never deletes it")
	assert.Equal(t, 0, got.Quantity)
	assert.Equal(t, model.StatusSold, got.Status)
	assert.False(t, got.InStock)
}

func TestSellAvailablePartialResetsStatus(t *testing.T) {
	svc, repo, _ := newTestInventory()
	// Previously edited to out_of_stock; a partial sell flips it back to
	// available. Input-driven policy, preserved on purpose.
	row := seedMaterial(repo, "M7", 5, model.StatusOutOfStock)

	require.NoError(t, svc.Sell(context.Background(), row.ID, 2))
	got := repo.materials[row.ID]
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, model.StatusAvailable, got.Status)
	assert.True(t, got.InStock)
}

func TestSellRejected(t *testing.T) {
	svc, repo, _ := newTestInventory()
	row := seedMaterial(repo, "M8", 2, model.StatusAvailable)

	assert.ErrorIs(t, svc.Sell(context.Background(), row.ID, 3), ErrInsufficientStock)
	assert.ErrorIs(t, svc.Sell(context.Background(), row.ID, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, svc.Sell(context.Background(), 404, 1), ErrMaterialNotFound)
	assert.Equal(t, 2, repo.materials[row.ID].Quantity)
}

// ── Return ───────────────────────────────────────────────────────────────────

func TestReturnPartialToExistingSibling(t *testing.T) {
	svc, repo, _ := newTestInventory()
	available := seedMaterial(repo, "M9", 6, model.StatusAvailable)
	reserved := seedMaterial(repo, "M9", 4, model.StatusReserved)

	resp, err := svc.Return(context.Background(), reserved.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, available.ID, resp.ID)
	assert.Equal(t, 7, resp.Quantity)
	assert.Equal(t, 3, repo.materials[reserved.ID].Quantity)
	assertInStockInvariant(t, repo)
}

func TestReturnFullWithoutSiblingCreatesRow(t *testing.T) {
	svc, repo, _ := newTestInventory()
	reserved := seedMaterial(repo, "M10", 3, model.StatusReserved)

	resp, err := svc.Return(context.Background(), reserved.ID, 3)
	require.NoError(t, err)

	_, exists := repo.materials[reserved.ID]
	assert.False(t, exists, "fully returned reserved row is deleted")
	assert.Equal(t, model.StatusAvailable, resp.Status)
	assert.Equal(t, 3, resp.Quantity)
	assert.Equal(t, "M10", resp.MaterialID)
	assert.True(t, resp.InStock)
	assertInStockInvariant(t, repo)
}

func TestReturnRejected(t *testing.T) {
	svc, repo, _ := newTestInventory()
	available := seedMaterial(repo, "M11", 5, model.StatusAvailable)
	reserved := seedMaterial(repo, "M11", 2, model.StatusReserved)

	_, err := svc.Return(context.Background(), available.ID, 1)
	assert.ErrorIs(t, err, ErrNotReserved)

	_, err = svc.Return(context.Background(), reserved.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.Return(context.Background(), reserved.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Return(context.Background(), 404, 1)
	assert.ErrorIs(t, err, ErrMaterialNotFound)

	assert.Equal(t, 5, repo.materials[available.ID].Quantity)
	assert.Equal(t, 2, repo.materials[reserved.ID].Quantity)
}

func TestReturnThenSellNeverGoesNegative(t *testing.T) {
	svc, repo, _ := newTestInventory()
	reserved := seedMaterial(repo, "M12", 2, model.StatusReserved)

	_, err := svc.Return(context.Background(), reserved.ID, 1)
	require.NoError(t, err)

	// Only 1 unit remains reserved; further drains must bounce.
	_, err = svc.Return(context.Background(), reserved.ID, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, svc.Sell(context.Background(), reserved.ID, 2), ErrInsufficientStock)

	require.NoError(t, svc.Sell(context.Background(), reserved.ID, 1))
	for _, m := range repo.materials {
		assert.GreaterOrEqual(t, m.Quantity, 0)
	}
	assertInStockInvariant(t, repo)
}

// ── End-to-end scenario from the sales flow ──────────────────────────────────

func TestReserveSellLifecycle(t *testing.T) {
	svc, repo, _ := newTestInventory()
	src := seedMaterial(repo, "M1", 10, model.StatusAvailable)

	reserved, err := svc.Reserve(context.Background(), src.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, repo.materials[src.ID].Quantity)
	assert.Equal(t, model.StatusAvailable, repo.materials[src.ID].Status)
	assert.Equal(t, 4, reserved.Quantity)
	assert.Equal(t, model.StatusReserved, reserved.Status)

	require.NoError(t, svc.Sell(context.Background(), reserved.ID, 4))
	_, exists := repo.materials[reserved.ID]
	assert.False(t, exists)

	require.NoError(t, svc.Sell(context.Background(), src.ID, 6))
	final := repo.materials[src.ID]
	assert.Equal(t, 0, final.Quantity)
	assert.Equal(t, model.StatusSold, final.Status)
	assert.False(t, final.InStock)
	assertInStockInvariant(t, repo)
}

// ── Movements / bulk import / catalog ────────────────────────────────────────

func TestReserveRecordsMovements(t *testing.T) {
	svc, repo, movements := newTestInventory()
	src := seedMaterial(repo, "M13", 8, model.StatusAvailable)

	reserved, err := svc.Reserve(context.Background(), src.ID, 3)
	require.NoError(t, err)

	out, err := svc.Movements(context.Background(), src.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.MovementReserve, out[0].Kind)
	assert.Equal(t, -3, out[0].Delta)
	assert.Equal(t, 8, out[0].QuantityBefore)
	assert.Equal(t, 5, out[0].QuantityAfter)
	require.NotNil(t, out[0].CounterpartID)
	assert.Equal(t, reserved.ID, *out[0].CounterpartID)

	// The reserved clone carries the mirror entry.
	assert.Len(t, movements.movements, 2)
}

func TestMovementsNotFound(t *testing.T) {
	svc, _, _ := newTestInventory()
	_, err := svc.Movements(context.Background(), 123)
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestMovementsSurviveRowDeletion(t *testing.T) {
	svc, _, _ := newTestInventory()

	created, err := svc.Create(context.Background(), dto.CreateMaterialRequest{
		MaterialID: "M-015",
		Name:       "Botticino Slab",
		Quantity:   2,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), created.ID))

	// The audit trail of a deleted row stays readable.
	out, err := svc.Movements(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, model.MovementCreate, out[0].Kind)
	assert.Equal(t, model.MovementDelete, out[1].Kind)
	assert.Equal(t, 0, out[1].QuantityAfter)
}

func TestMovementTimestampsAreUTC(t *testing.T) {
	svc, repo, movements := newTestInventory()
	m := seedMaterial(repo, "M-016", 1, model.StatusAvailable)

	zone := time.FixedZone("ART", -3*60*60)
	movements.movements = append(movements.movements, model.StockMovement{
		ID:            1,
		MaterialID:    m.ID,
		Kind:          model.MovementCreate,
		Delta:         1,
		QuantityAfter: 1,
		CreatedAt:     time.Date(2026, 3, 1, 9, 30, 0, 0, zone),
	})

	out, err := svc.Movements(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "2026-03-01T12:30:00Z", out[0].CreatedAt)
}

func TestBulkCreate(t *testing.T) {
	svc, repo, _ := newTestInventory()

	resp, err := svc.BulkCreate(context.Background(), dto.BulkCreateRequest{
		Rows: []dto.CreateMaterialRequest{
			{MaterialID: "B-1", Name: "Slab A", Quantity: 2},
			{MaterialID: "B-2", Name: "Slab B"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Created)
	assert.Equal(t, 0, resp.Failed)
	assert.Len(t, repo.materials, 2)
}

func TestCatalogLookupFiltersToAvailable(t *testing.T) {
	svc, repo, _ := newTestInventory()
	seedMaterial(repo, "M14", 2, model.StatusReserved)
	available := seedMaterial(repo, "M14", 5, model.StatusAvailable)

	resp, err := svc.CatalogLookup(context.Background(), "M14")
	require.NoError(t, err)
	assert.Equal(t, available.ID, resp.ID)
	assert.Equal(t, model.StatusAvailable, resp.Status)

	_, err = svc.CatalogLookup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestCatalogListOnlyAvailable(t *testing.T) {
	svc, repo, _ := newTestInventory()
	seedMaterial(repo, "M15", 5, model.StatusAvailable)
	seedMaterial(repo, "M15", 2, model.StatusReserved)
	seedMaterial(repo, "M16", 0, model.StatusSold)

	items, err := svc.CatalogList(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "M15", items[0].MaterialID)
}
