package models

// Ingredient is an entry in the shared, append-only ingredient catalog.
// Names are stored trimmed and compared case-sensitively.
type Ingredient struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}
