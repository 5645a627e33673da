package models

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the purchasing customer or a staff member. Credentials are owned by
// the auth provider and never stored here.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Role      string    `json:"role" gorm:"type:varchar(20);default:customer" validate:"omitempty,oneof=customer admin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user may use the staff console.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
