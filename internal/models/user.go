package models

import "time"

// User represents an account of the store.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"password,omitempty" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role      Role      `json:"role" gorm:"type:varchar(20);default:customer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile holds the customer facing account data, including the wallet.
// WalletBalance is always expressed in the base currency.
type Profile struct {
	UserID            string    `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	DisplayName       string    `json:"display_name"`
	WalletBalance     Money     `json:"wallet_balance" gorm:"type:decimal(14,2);not null;default:0"`
	PreferredCurrency string    `json:"preferred_currency" gorm:"type:varchar(3)"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
