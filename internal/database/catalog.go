package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// The catalog is read-only to the order core; writes exist only for seeding.

const menuItemColumns = `id, category_id, name, description, price, discount_price, sku, visible, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price,
		&m.DiscountPrice, &m.Sku, &m.Visible, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1
	`, id))
}

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items WHERE visible ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetVariationOptionRow carries the owning menu item so callers can verify
// the option actually belongs to the ordered item.
type GetVariationOptionRow struct {
	ID          uuid.UUID
	VariationID uuid.UUID
	Value       string
	ExtraPrice  pgtype.Numeric
	MenuItemID  uuid.UUID
}

func (q *Queries) GetVariationOption(ctx context.Context, id uuid.UUID) (GetVariationOptionRow, error) {
	var r GetVariationOptionRow
	err := q.db.QueryRow(ctx, `
		SELECT vo.id, vo.variation_id, vo.value, vo.extra_price, v.menu_item_id
		FROM variation_options vo
		JOIN variations v ON v.id = vo.variation_id
		WHERE vo.id = $1
	`, id).Scan(&r.ID, &r.VariationID, &r.Value, &r.ExtraPrice, &r.MenuItemID)
	return r, err
}

const recipeLineColumns = `id, ingredient_id, menu_item_id, variation_option_id, quantity_required`

func (q *Queries) listRecipeLines(ctx context.Context, sql string, id uuid.UUID) ([]RecipeLine, error) {
	rows, err := q.db.Query(ctx, sql, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecipeLine
	for rows.Next() {
		var l RecipeLine
		if err := rows.Scan(&l.ID, &l.IngredientID, &l.MenuItemID, &l.VariationOptionID, &l.QuantityRequired); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (q *Queries) ListRecipeLinesByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]RecipeLine, error) {
	return q.listRecipeLines(ctx, `
		SELECT `+recipeLineColumns+` FROM recipe_lines WHERE menu_item_id = $1 ORDER BY id
	`, menuItemID)
}

func (q *Queries) ListRecipeLinesByVariationOption(ctx context.Context, optionID uuid.UUID) ([]RecipeLine, error) {
	return q.listRecipeLines(ctx, `
		SELECT `+recipeLineColumns+` FROM recipe_lines WHERE variation_option_id = $1 ORDER BY id
	`, optionID)
}

const serviceColumns = `id, category_id, name, price, requires_booking, is_active`

func (q *Queries) GetService(ctx context.Context, id uuid.UUID) (Service, error) {
	var s Service
	err := q.db.QueryRow(ctx, `
		SELECT `+serviceColumns+` FROM services WHERE id = $1
	`, id).Scan(&s.ID, &s.CategoryID, &s.Name, &s.Price, &s.RequiresBooking, &s.IsActive)
	return s, err
}

func (q *Queries) GetServiceBooking(ctx context.Context, id uuid.UUID) (ServiceBooking, error) {
	var b ServiceBooking
	err := q.db.QueryRow(ctx, `
		SELECT id, service_id, customer_name, customer_phone, scheduled_at, status, created_at
		FROM service_bookings WHERE id = $1
	`, id).Scan(&b.ID, &b.ServiceID, &b.CustomerName, &b.CustomerPhone, &b.ScheduledAt, &b.Status, &b.CreatedAt)
	return b, err
}

// --- Seed inserts ---

type CreateCategoryParams struct {
	Name string
	Slug string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, `
		INSERT INTO categories (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug
	`, arg.Name, arg.Slug).Scan(&c.ID, &c.Name, &c.Slug)
	return c, err
}

type CreateMenuItemParams struct {
	CategoryID    uuid.UUID
	Name          string
	Description   pgtype.Text
	Price         pgtype.Numeric
	DiscountPrice pgtype.Numeric
	Sku           pgtype.Text
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, `
		INSERT INTO menu_items (category_id, name, description, price, discount_price, sku)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+menuItemColumns+`
	`, arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.DiscountPrice, arg.Sku))
}

type CreateVariationParams struct {
	MenuItemID uuid.UUID
	Name       string
	Required   bool
}

func (q *Queries) CreateVariation(ctx context.Context, arg CreateVariationParams) (Variation, error) {
	var v Variation
	err := q.db.QueryRow(ctx, `
		INSERT INTO variations (menu_item_id, name, required) VALUES ($1, $2, $3)
		RETURNING id, menu_item_id, name, required
	`, arg.MenuItemID, arg.Name, arg.Required).Scan(&v.ID, &v.MenuItemID, &v.Name, &v.Required)
	return v, err
}

type CreateVariationOptionParams struct {
	VariationID uuid.UUID
	Value       string
	ExtraPrice  pgtype.Numeric
}

func (q *Queries) CreateVariationOption(ctx context.Context, arg CreateVariationOptionParams) (VariationOption, error) {
	var o VariationOption
	err := q.db.QueryRow(ctx, `
		INSERT INTO variation_options (variation_id, value, extra_price) VALUES ($1, $2, $3)
		RETURNING id, variation_id, value, extra_price
	`, arg.VariationID, arg.Value, arg.ExtraPrice).Scan(&o.ID, &o.VariationID, &o.Value, &o.ExtraPrice)
	return o, err
}

type CreateRecipeLineParams struct {
	IngredientID      uuid.UUID
	MenuItemID        pgtype.UUID
	VariationOptionID pgtype.UUID
	QuantityRequired  pgtype.Numeric
}

func (q *Queries) CreateRecipeLine(ctx context.Context, arg CreateRecipeLineParams) (RecipeLine, error) {
	var l RecipeLine
	err := q.db.QueryRow(ctx, `
		INSERT INTO recipe_lines (ingredient_id, menu_item_id, variation_option_id, quantity_required)
		VALUES ($1, $2, $3, $4)
		RETURNING `+recipeLineColumns+`
	`, arg.IngredientID, arg.MenuItemID, arg.VariationOptionID, arg.QuantityRequired).
		Scan(&l.ID, &l.IngredientID, &l.MenuItemID, &l.VariationOptionID, &l.QuantityRequired)
	return l, err
}

type CreateServiceCategoryParams struct {
	Name string
	Slug string
}

func (q *Queries) CreateServiceCategory(ctx context.Context, arg CreateServiceCategoryParams) (ServiceCategory, error) {
	var c ServiceCategory
	err := q.db.QueryRow(ctx, `
		INSERT INTO service_categories (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug
	`, arg.Name, arg.Slug).Scan(&c.ID, &c.Name, &c.Slug)
	return c, err
}

type CreateServiceParams struct {
	CategoryID      uuid.UUID
	Name            string
	Price           pgtype.Numeric
	RequiresBooking bool
}

func (q *Queries) CreateService(ctx context.Context, arg CreateServiceParams) (Service, error) {
	var s Service
	err := q.db.QueryRow(ctx, `
		INSERT INTO services (category_id, name, price, requires_booking) VALUES ($1, $2, $3, $4)
		RETURNING `+serviceColumns+`
	`, arg.CategoryID, arg.Name, arg.Price, arg.RequiresBooking).
		Scan(&s.ID, &s.CategoryID, &s.Name, &s.Price, &s.RequiresBooking, &s.IsActive)
	return s, err
}

type CreateServiceBookingParams struct {
	ServiceID     uuid.UUID
	CustomerName  string
	CustomerPhone pgtype.Text
	ScheduledAt   time.Time
}

func (q *Queries) CreateServiceBooking(ctx context.Context, arg CreateServiceBookingParams) (ServiceBooking, error) {
	var b ServiceBooking
	err := q.db.QueryRow(ctx, `
		INSERT INTO service_bookings (service_id, customer_name, customer_phone, scheduled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, service_id, customer_name, customer_phone, scheduled_at, status, created_at
	`, arg.ServiceID, arg.CustomerName, arg.CustomerPhone, arg.ScheduledAt).
		Scan(&b.ID, &b.ServiceID, &b.CustomerName, &b.CustomerPhone, &b.ScheduledAt, &b.Status, &b.CreatedAt)
	return b, err
}
