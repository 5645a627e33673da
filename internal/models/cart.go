package models

import "time"

// Cart is the live basket of a user. There is at most one cart per user.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"userId" gorm:"uniqueIndex;type:varchar(36)"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem holds the price captured when the product was added.
type CartItem struct {
	ID        uint     `json:"-" gorm:"primaryKey"`
	CartID    string   `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string   `json:"productId" gorm:"type:varchar(36)"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`
}
