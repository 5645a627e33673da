package models

import "time"

// OrderStatus is a step of the order lifecycle.
type OrderStatus string

const (
	StatusPending        OrderStatus = "Pending"
	StatusPreparing      OrderStatus = "Preparing"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCanceled       OrderStatus = "Canceled"
)

// TerminalStatuses are the states an order never leaves.
var TerminalStatuses = []OrderStatus{StatusDelivered, StatusCanceled}

// validNext lists the allowed moves. Progress is forward-only; skipping ahead
// is permitted so dine-in orders can go straight from Preparing to Delivered.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusPreparing:      true,
		StatusOutForDelivery: true,
		StatusDelivered:      true,
		StatusCanceled:       true,
	},
	StatusPreparing: {
		StatusOutForDelivery: true,
		StatusDelivered:      true,
		StatusCanceled:       true,
	},
	StatusOutForDelivery: {StatusDelivered: true},
	StatusDelivered:      {},
	StatusCanceled:       {},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// IsTerminal reports whether s is Delivered or Canceled.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// IsFulfillment reports whether entering s consumes stock.
func (s OrderStatus) IsFulfillment() bool {
	return s == StatusOutForDelivery || s == StatusDelivered
}

// Cancelable reports whether an order in state s may still be canceled.
func (s OrderStatus) Cancelable() bool {
	return s == StatusPending || s == StatusPreparing
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// PurchaseType says how the customer receives the order.
type PurchaseType string

const (
	PurchaseDelivery PurchaseType = "Delivery"
	PurchaseDineIn   PurchaseType = "Dine In"
)

// PaymentStatus is derived from the payment method at checkout.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
)

// OrderItem is a line item frozen at checkout. Price is never re-read from the
// catalog after the order exists.
type OrderItem struct {
	ID        uint     `json:"-" gorm:"primaryKey"`
	OrderID   string   `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string   `json:"productId" gorm:"type:varchar(36)"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`
}

// Order represents a customer order.
type Order struct {
	ID               string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string        `json:"userId" gorm:"index;type:varchar(36)"`
	User             *User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items            []OrderItem   `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount      float64       `json:"totalAmount"`
	PurchaseType     PurchaseType  `json:"purchaseType" gorm:"type:varchar(20)"`
	DeliveryLocation *GeoPoint     `json:"deliveryLocation" gorm:"type:text"`
	ManualAddress    *string       `json:"manualAddress,omitempty"`
	AdminLocation    *GeoPoint     `json:"adminLocation,omitempty" gorm:"type:text"`
	PaymentMethod    string        `json:"paymentMethod" gorm:"type:varchar(50)"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" gorm:"type:varchar(20)"`
	Status           OrderStatus   `json:"status" gorm:"index;type:varchar(30)"`
	StockCommitted   bool          `json:"stockCommitted"`
	Version          int           `json:"version"`
	CreatedAt        time.Time     `json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
