package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateMaterialRequest struct {
	MaterialID   string  `json:"material_id" validate:"required,min=1,max=60"`
	Name         string  `json:"name"        validate:"required,min=1,max=160"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Block        *string `json:"block"`
	Bundle       *string `json:"bundle"`
	Dimensions   *string `json:"dimensions"`
	Finish       *string `json:"finish"`
	Presentation *string `json:"presentation"`
	Price        *string `json:"price"`
	ImageURL     *string `json:"image_url"`
	Quantity     int     `json:"quantity" validate:"min=0"`
	Status       *string `json:"status"   validate:"omitempty,oneof=available reserved sold out_of_stock"`
}

// UpdateMaterialRequest is a typed partial update: nil means "leave as is".
// InStock is normally recomputed from the resulting quantity; supplying it
// explicitly overrides the derived value for this call.
type UpdateMaterialRequest struct {
	MaterialID   *string `json:"material_id" validate:"omitempty,min=1,max=60"`
	Name         *string `json:"name"        validate:"omitempty,min=1,max=160"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Block        *string `json:"block"`
	Bundle       *string `json:"bundle"`
	Dimensions   *string `json:"dimensions"`
	Finish       *string `json:"finish"`
	Presentation *string `json:"presentation"`
	Price        *string `json:"price"`
	ImageURL     *string `json:"image_url"`
	Quantity     *int    `json:"quantity" validate:"omitempty,min=0"`
	InStock      *bool   `json:"in_stock"`
	Status       *string `json:"status"   validate:"omitempty,oneof=available reserved sold out_of_stock"`
}

// QuantityRequest is the body for reserve / sell / return operations.
type QuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type BulkCreateRequest struct {
	Rows []CreateMaterialRequest `json:"rows" validate:"required,min=1,dive"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type MaterialFilter struct {
	MaterialID string `form:"material_id"`
	Name       string `form:"name"`
	Category   string `form:"category"`
	Status     string `form:"status"`
	InStock    string `form:"in_stock"` // "true" | "false" | "" (no filter)
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MaterialResponse struct {
	ID           int     `json:"id"`
	MaterialID   string  `json:"material_id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Block        *string `json:"block"`
	Bundle       *string `json:"bundle"`
	Dimensions   *string `json:"dimensions"`
	Finish       *string `json:"finish"`
	Presentation *string `json:"presentation"`
	Price        *string `json:"price"`
	ImageURL     *string `json:"image_url"`
	Quantity     int     `json:"quantity"`
	InStock      bool    `json:"in_stock"`
	Status       string  `json:"status"`
}

type MaterialListResponse struct {
	Data  []MaterialResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type BulkRowError struct {
	Row    int    `json:"row"` // zero-based index into the submitted rows
	Detail string `json:"detail"`
}

type BulkCreateResponse struct {
	Created int            `json:"created"`
	Failed  int            `json:"failed"`
	Errors  []BulkRowError `json:"errors,omitempty"`
}

type StockMovementResponse struct {
	ID             int    `json:"id"`
	MaterialID     int    `json:"material_id"`
	Kind           string `json:"kind"`
	Delta          int    `json:"delta"`
	QuantityBefore int    `json:"quantity_before"`
	QuantityAfter  int    `json:"quantity_after"`
	CounterpartID  *int   `json:"counterpart_id,omitempty"`
	Note           string `json:"note,omitempty"`
	CreatedAt      string `json:"created_at"`
}
