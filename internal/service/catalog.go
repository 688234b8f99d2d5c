package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Jorgegzze/marbleworldinventory/internal/dto"
	"github.com/Jorgegzze/marbleworldinventory/internal/model"
)

// Public catalog reads. Responses are cached in redis and invalidated by every
// mutating operation, so the TTL only matters when an invalidation was lost.
const (
	catalogCacheTTL     = time.Hour
	catalogListCacheKey = "catalog:materials"
)

func catalogItemCacheKey(code string) string { return "catalog:material:" + code }

// CatalogList returns every available material, for the public storefront.
func (s *inventoryService) CatalogList(ctx context.Context) ([]dto.MaterialResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, catalogListCacheKey).Bytes(); err == nil {
			var items []dto.MaterialResponse
			if jsonErr := json.Unmarshal(cached, &items); jsonErr == nil {
				return items, nil
			}
		}
	}

	materials, _, err := s.repo.List(ctx, dto.MaterialFilter{
		Status: model.StatusAvailable,
		Page:   1,
		Limit:  catalogPageLimit,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.MaterialResponse, 0, len(materials))
	for i := range materials {
		items = append(items, *materialToResponse(&materials[i]))
	}

	if s.rdb != nil {
		if b, jsonErr := json.Marshal(items); jsonErr == nil {
			_ = s.rdb.Set(ctx, catalogListCacheKey, b, catalogCacheTTL).Err()
		}
	}
	return items, nil
}

// catalogPageLimit bounds the uncursored public listing. The whole showroom
// fits comfortably under it.
const catalogPageLimit = 1000

// CatalogLookup resolves a catalog code among available rows only — reserved
// and sold clones share the code and must never surface here.
func (s *inventoryService) CatalogLookup(ctx context.Context, materialID string) (*dto.MaterialResponse, error) {
	cacheKey := catalogItemCacheKey(materialID)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.MaterialResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	m, err := s.repo.FindAvailableByMaterialID(ctx, materialID)
	if err != nil {
		return nil, ErrMaterialNotFound
	}
	resp := materialToResponse(m)

	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, cacheKey, b, catalogCacheTTL).Err()
		}
	}
	return resp, nil
}
