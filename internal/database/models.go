package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Ingredient is a unit of shared stock. quantity_in_stock is mutated only
// inside a coordinator-scoped transaction, never read-modify-written outside.
type Ingredient struct {
	ID              uuid.UUID
	Name            string
	Unit            string
	QuantityInStock pgtype.Numeric
	ReorderLevel    pgtype.Numeric
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RecipeLine declares ingredient consumption for exactly one of a menu item
// or a variation option (enforced by DB CHECK constraints).
type RecipeLine struct {
	ID                uuid.UUID
	IngredientID      uuid.UUID
	MenuItemID        pgtype.UUID
	VariationOptionID pgtype.UUID
	QuantityRequired  pgtype.Numeric
}

type Category struct {
	ID   uuid.UUID
	Name string
	Slug string
}

type MenuItem struct {
	ID            uuid.UUID
	CategoryID    uuid.UUID
	Name          string
	Description   pgtype.Text
	Price         pgtype.Numeric
	DiscountPrice pgtype.Numeric
	Sku           pgtype.Text
	Visible       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Variation is an option group on a menu item (e.g. "Size").
type Variation struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	Required   bool
}

// VariationOption is one selectable value in a group (e.g. "Large").
type VariationOption struct {
	ID          uuid.UUID
	VariationID uuid.UUID
	Value       string
	ExtraPrice  pgtype.Numeric
}

type ServiceCategory struct {
	ID   uuid.UUID
	Name string
	Slug string
}

type Service struct {
	ID              uuid.UUID
	CategoryID      uuid.UUID
	Name            string
	Price           pgtype.Numeric
	RequiresBooking bool
	IsActive        bool
}

type ServiceBooking struct {
	ID            uuid.UUID
	ServiceID     uuid.UUID
	CustomerName  string
	CustomerPhone pgtype.Text
	ScheduledAt   time.Time
	Status        string
	CreatedAt     time.Time
}

type Order struct {
	ID            uuid.UUID
	RefCode       string
	TableNumber   pgtype.Text
	CustomerName  string
	CustomerPhone pgtype.Text
	StaffID       pgtype.UUID
	TaxEnabled    bool
	TaxRate       pgtype.Numeric
	PaymentStatus string
	Cancelled     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderLineItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	Notes      pgtype.Text
	PersonName pgtype.Text
	IsPaid     bool
	PaidAmount pgtype.Numeric
	CreatedAt  time.Time
}

// OrderServiceLine mirrors OrderLineItem for booked services. Service lines
// never consume ingredient stock.
type OrderServiceLine struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ServiceID  uuid.UUID
	Quantity   int32
	BookingID  pgtype.UUID
	Notes      pgtype.Text
	PersonName pgtype.Text
	IsPaid     bool
	PaidAmount pgtype.Numeric
	CreatedAt  time.Time
}

type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}
