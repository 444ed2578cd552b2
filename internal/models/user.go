package models

import "time"

const (
	RoleCustomer = "customer"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Phone     string `gorm:"uniqueIndex;not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	FirstName string `gorm:"not null"`
	LastName  string `gorm:"not null"`
	Role      string `gorm:"not null;default:'customer'"`
	IsActive  bool   `gorm:"default:true"`
	LastLogin *time.Time
	Version   int `gorm:"default:1"`
}

func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleOperator
}
