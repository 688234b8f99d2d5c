package model

// Material status values. A reservation never mutates the source row's status;
// it splits the quantity into a second row carrying StatusReserved.
const (
	StatusAvailable  = "available"
	StatusReserved   = "reserved"
	StatusSold       = "sold"
	StatusOutOfStock = "out_of_stock"
)

// Material is one inventory row: a quantity of a specific stone product in a
// particular state. Because reservations split rows, MaterialID (the catalog
// code) is only unique among rows with StatusAvailable — never across the
// whole table.
type Material struct {
	ID           int    `gorm:"primaryKey;autoIncrement"`
	MaterialID   string `gorm:"column:material_id;index;not null"`
	Name         string `gorm:"not null"`
	Description  *string
	Category     *string `gorm:"index"`
	Block        *string
	Bundle       *string
	Dimensions   *string
	Finish       *string
	Presentation *string
	Price        *string
	ImageURL     *string
	Quantity     int    `gorm:"not null;default:0"`
	// InStock is derived: true iff Quantity > 0. Persisted so the catalog can
	// filter on it without recomputing.
	InStock bool   `gorm:"not null;default:false"`
	Status  string `gorm:"type:varchar(20);not null;default:'available';index"`
}
