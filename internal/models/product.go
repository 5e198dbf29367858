package models

import "time"

// Product represents a product card in the store catalog.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" validate:"required,min=3,max=100"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	Price       Money     `json:"price" gorm:"type:decimal(14,2)"`
	Stock       int       `json:"stock" validate:"gte=0"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url"`
	Category    string    `json:"category" validate:"omitempty,max=50"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName keeps the table name used by the mobile client.
func (Product) TableName() string { return "product_card_data" }

// SpecialOffer is a time boxed promotion shown on the home screen. Its Code
// may be entered at checkout for a percentage discount.
type SpecialOffer struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title           string     `json:"title" validate:"required,max=100"`
	Description     string     `json:"description" validate:"omitempty,max=500"`
	Code            string     `json:"code" gorm:"index;type:varchar(32)" validate:"omitempty,alphanum,max=32"`
	DiscountPercent Money      `json:"discount_percent" gorm:"type:decimal(5,2)"`
	Active          bool       `json:"active"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	EndsAt          *time.Time `json:"ends_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Live reports whether the offer applies at t.
func (o SpecialOffer) Live(t time.Time) bool {
	if !o.Active {
		return false
	}
	if o.StartsAt != nil && t.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && !t.Before(*o.EndsAt) {
		return false
	}
	return true
}
