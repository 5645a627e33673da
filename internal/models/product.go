package models

import "time"

// Product represents an item on the menu. Stock is never negative.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	Category    string    `json:"category" gorm:"index;type:varchar(50)" validate:"omitempty,max=50"`
	Price       float64   `json:"price" validate:"required,gt=0"`
	Stock       int       `json:"stock" gorm:"check:stock >= 0" validate:"gte=0"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
