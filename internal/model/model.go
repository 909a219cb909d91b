// Package model defines the domain types shared across the API.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a menu item. Prices are exact decimals; the storefront never
// does float arithmetic on money.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `json:"is_active"`
}

// Category groups products on the menu.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int32     `json:"sort_order"`
}

// Addon is an optional extra (granola, condensed milk, ...) with a price
// increment. Add-ons are associated to products via the product_addons table.
type Addon struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Customer is created at checkout from the delivery form.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Address is the delivery address captured at checkout.
type Address struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Cep        string    `json:"cep"`
	Street     string    `json:"street"`
	Number     string    `json:"number"`
	District   string    `json:"district"`
}

// Order is the persisted order header. Status moves through the stages
// described in the stage package; updates are direct replacements.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	AddressID     uuid.UUID       `json:"address_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderItem is one purchased line. UnitPrice has the add-on surcharge baked
// in at purchase time; Extras is a descriptive snapshot of the chosen
// add-ons and is never used for repricing.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Extras    []Addon         `json:"extras,omitempty"`
}

// Admin is a dashboard account.
type Admin struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderItemDetail joins an order item with the product fields the status
// page and dashboard render.
type OrderItemDetail struct {
	OrderItem
	ProductName     string `json:"product_name"`
	ProductImageURL string `json:"product_image_url"`
}

// OrderDetail is the fully joined order view.
type OrderDetail struct {
	Order
	Customer Customer          `json:"customer"`
	Address  Address           `json:"address"`
	Items    []OrderItemDetail `json:"items"`
}
