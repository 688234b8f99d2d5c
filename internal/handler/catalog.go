package handler

import (
	"net/http"

	"github.com/Jorgegzze/marbleworldinventory/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the public storefront endpoints. No authentication,
// no side effects; responses come from the redis-backed catalog cache.
type CatalogHandler struct{ svc service.InventoryService }

func NewCatalogHandler(svc service.InventoryService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) List(c *gin.Context) {
	items, err := h.svc.CatalogList(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Lookup resolves a catalog code to its available row. Reserved and sold
// clones sharing the code are invisible here.
func (h *CatalogHandler) Lookup(c *gin.Context) {
	resp, err := h.svc.CatalogLookup(c.Request.Context(), c.Param("material_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
