package models

import "time"

// FavoritePair is a saved base/target currency combination.
// Duplicates are allowed; rows are never updated or deleted.
type FavoritePair struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	BaseCurrency   string    `gorm:"not null" json:"baseCurrency"`
	TargetCurrency string    `gorm:"not null" json:"targetCurrency"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (FavoritePair) TableName() string {
	return "favorites"
}
