package models

import "time"

// OrderKind distinguishes the two order variants.
type OrderKind string

const (
	OrderKindStandard OrderKind = "standard"
	OrderKindCustom   OrderKind = "custom"
)

// OrderRef addresses an order of either kind.
type OrderRef struct {
	Kind OrderKind `json:"kind" validate:"required,oneof=standard custom"`
	ID   string    `json:"id" validate:"required"`
}

// AnyOrder is implemented by *Order and *CustomOrder only.
type AnyOrder interface {
	Kind() OrderKind
	OrderID() string
	OwnerID() string
	StatusValue() string
	anyOrder()
}

// OrderItem represents a single item within an order.
type OrderItem struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID string `json:"product_id" gorm:"type:varchar(36)"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unit_price" gorm:"type:decimal(14,2)"` // Price at the time of order
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Order represents a catalog purchase.
type Order struct {
	ID               string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string        `json:"user_id" gorm:"index;type:varchar(36)"`
	Items            []OrderItem   `json:"items" gorm:"foreignKey:OrderID"`
	Subtotal         Money         `json:"subtotal" gorm:"type:decimal(14,2)"`
	ServiceFee       Money         `json:"service_fee" gorm:"type:decimal(14,2)"`
	DeliveryFee      Money         `json:"delivery_fee" gorm:"type:decimal(14,2)"`
	DiscountAmount   Money         `json:"discount_amount" gorm:"type:decimal(14,2)"`
	Total            Money         `json:"total" gorm:"type:decimal(14,2)"`
	PaymentMethod    PaymentMethod `json:"payment_method" gorm:"type:varchar(20)"`
	PaymentStatus    PaymentStatus `json:"payment_status" gorm:"type:varchar(20);index"`
	PaymentReference *string       `json:"payment_reference,omitempty" gorm:"uniqueIndex;type:varchar(64)"`
	Status           OrderStatus   `json:"status" gorm:"type:varchar(20);index"`
	DeliveryAddress  string        `json:"delivery_address"`
	PaymentCurrency  string        `json:"payment_currency" gorm:"type:varchar(3)"`
	OriginalAmount   Money         `json:"original_amount" gorm:"type:decimal(14,2)"` // Total in PaymentCurrency
	PromoCode        string        `json:"promo_code,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (o *Order) Kind() OrderKind     { return OrderKindStandard }
func (o *Order) OrderID() string     { return o.ID }
func (o *Order) OwnerID() string     { return o.UserID }
func (o *Order) StatusValue() string { return string(o.Status) }
func (o *Order) anyOrder()           {}

// CustomOrder is a bespoke product request quoted manually by an admin.
type CustomOrder struct {
	ID              string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string            `json:"user_id" gorm:"index;type:varchar(36)"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Quantity        int               `json:"quantity"`
	BudgetRange     string            `json:"budget_range"`
	Status          CustomOrderStatus `json:"status" gorm:"type:varchar(20);index"`
	InvoiceSent     bool              `json:"invoice_sent" gorm:"not null;default:false"`
	PaymentCurrency string            `json:"payment_currency" gorm:"type:varchar(3)"`
	BusinessName    string            `json:"business_name,omitempty"`
	LogoURL         string            `json:"logo_url,omitempty"`
	BrandColors     string            `json:"brand_colors,omitempty"`
	LogoPlacement   string            `json:"logo_placement,omitempty"`
	Deadline        *time.Time        `json:"deadline,omitempty"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Invoice         *Invoice          `json:"invoice,omitempty" gorm:"foreignKey:CustomOrderID"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// TableName keeps the table name used by the mobile client.
func (CustomOrder) TableName() string { return "custom_requests" }

func (o *CustomOrder) Kind() OrderKind     { return OrderKindCustom }
func (o *CustomOrder) OrderID() string     { return o.ID }
func (o *CustomOrder) OwnerID() string     { return o.UserID }
func (o *CustomOrder) StatusValue() string { return string(o.Status) }
func (o *CustomOrder) anyOrder()           {}
