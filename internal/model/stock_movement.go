package model

import "time"

// Movement kinds.
const (
	MovementCreate  = "create"
	MovementAdjust  = "adjust"
	MovementReserve = "reserve"
	MovementSell    = "sell"
	MovementReturn  = "return"
	MovementDelete  = "delete"
)

// StockMovement records every quantity change applied to a material row.
// Written inside the same transaction as the change itself.
type StockMovement struct {
	ID int `gorm:"primaryKey;autoIncrement"`
	// MaterialID references materials.id (the row id, not the catalog code).
	// No FK constraint: movements outlive deleted rows.
	MaterialID     int    `gorm:"not null;index"`
	Kind           string `gorm:"not null"`
	Delta          int    `gorm:"not null"` // positive = in, negative = out
	QuantityBefore int    `gorm:"not null"`
	QuantityAfter  int    `gorm:"not null"`
	// CounterpartID points at the row on the other side of a split: the
	// reserved clone for a reserve, the available sibling for a return.
	CounterpartID *int
	Note          string
	CreatedAt     time.Time
}
