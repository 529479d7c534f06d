package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, ref_code, table_number, customer_name, customer_phone, staff_id,
	tax_enabled, tax_rate, payment_status, cancelled, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.RefCode, &o.TableNumber, &o.CustomerName, &o.CustomerPhone,
		&o.StaffID, &o.TaxEnabled, &o.TaxRate, &o.PaymentStatus, &o.Cancelled,
		&o.CreatedAt, &o.UpdatedAt)
	return o, err
}

type CreateOrderParams struct {
	RefCode       string
	TableNumber   pgtype.Text
	CustomerName  string
	CustomerPhone pgtype.Text
	StaffID       pgtype.UUID
	TaxEnabled    bool
	TaxRate       pgtype.Numeric
	PaymentStatus string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		INSERT INTO orders (ref_code, table_number, customer_name, customer_phone, staff_id,
			tax_enabled, tax_rate, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+orderColumns+`
	`, arg.RefCode, arg.TableNumber, arg.CustomerName, arg.CustomerPhone, arg.StaffID,
		arg.TaxEnabled, arg.TaxRate, arg.PaymentStatus))
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id))
}

// GetOrderForUpdate locks the order row for the current transaction. Cancel
// and line mutations lock first so the cancelled flag cannot flip between
// the guard check and the commit.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE
	`, id))
}

// ListOrdersBetweenParams takes explicit bounds; there is no implicit
// "recent" window.
type ListOrdersBetweenParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrdersBetween(ctx context.Context, arg ListOrdersBetweenParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (q *Queries) MarkOrderCancelled(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		UPDATE orders SET cancelled = TRUE, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns+`
	`, id))
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, id uuid.UUID, status string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns+`
	`, id, status))
}

// --- Order line items ---

const lineItemColumns = `id, order_id, menu_item_id, quantity, notes, person_name, is_paid, paid_amount, created_at`

func scanLineItem(row pgx.Row) (OrderLineItem, error) {
	var l OrderLineItem
	err := row.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.Notes,
		&l.PersonName, &l.IsPaid, &l.PaidAmount, &l.CreatedAt)
	return l, err
}

type CreateOrderLineItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	Notes      pgtype.Text
	PersonName pgtype.Text
	IsPaid     bool
	PaidAmount pgtype.Numeric
}

func (q *Queries) CreateOrderLineItem(ctx context.Context, arg CreateOrderLineItemParams) (OrderLineItem, error) {
	return scanLineItem(q.db.QueryRow(ctx, `
		INSERT INTO order_line_items (order_id, menu_item_id, quantity, notes, person_name, is_paid, paid_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+lineItemColumns+`
	`, arg.OrderID, arg.MenuItemID, arg.Quantity, arg.Notes, arg.PersonName, arg.IsPaid, arg.PaidAmount))
}

func (q *Queries) AddOrderLineItemOption(ctx context.Context, lineItemID, optionID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO order_line_item_options (order_line_item_id, variation_option_id)
		VALUES ($1, $2)
	`, lineItemID, optionID)
	return err
}

type GetOrderLineItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetOrderLineItem(ctx context.Context, arg GetOrderLineItemParams) (OrderLineItem, error) {
	return scanLineItem(q.db.QueryRow(ctx, `
		SELECT `+lineItemColumns+` FROM order_line_items WHERE id = $1 AND order_id = $2
	`, arg.ID, arg.OrderID))
}

func (q *Queries) ListOrderLineItems(ctx context.Context, orderID uuid.UUID) ([]OrderLineItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+lineItemColumns+` FROM order_line_items WHERE order_id = $1 ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderLineItem
	for rows.Next() {
		l, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListLineItemOptions returns the variation options selected for one line.
func (q *Queries) ListLineItemOptions(ctx context.Context, lineItemID uuid.UUID) ([]VariationOption, error) {
	rows, err := q.db.Query(ctx, `
		SELECT vo.id, vo.variation_id, vo.value, vo.extra_price
		FROM order_line_item_options lo
		JOIN variation_options vo ON vo.id = lo.variation_option_id
		WHERE lo.order_line_item_id = $1
		ORDER BY vo.id
	`, lineItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VariationOption
	for rows.Next() {
		var o VariationOption
		if err := rows.Scan(&o.ID, &o.VariationID, &o.Value, &o.ExtraPrice); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type UpdateOrderLineItemQuantityParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) UpdateOrderLineItemQuantity(ctx context.Context, arg UpdateOrderLineItemQuantityParams) (OrderLineItem, error) {
	return scanLineItem(q.db.QueryRow(ctx, `
		UPDATE order_line_items SET quantity = $2 WHERE id = $1
		RETURNING `+lineItemColumns+`
	`, arg.ID, arg.Quantity))
}

type UpdateLinePaymentParams struct {
	ID         uuid.UUID
	PersonName pgtype.Text
	IsPaid     bool
	PaidAmount pgtype.Numeric
}

func (q *Queries) UpdateOrderLineItemPayment(ctx context.Context, arg UpdateLinePaymentParams) (OrderLineItem, error) {
	return scanLineItem(q.db.QueryRow(ctx, `
		UPDATE order_line_items SET person_name = $2, is_paid = $3, paid_amount = $4
		WHERE id = $1
		RETURNING `+lineItemColumns+`
	`, arg.ID, arg.PersonName, arg.IsPaid, arg.PaidAmount))
}

// --- Order service lines ---

const serviceLineColumns = `id, order_id, service_id, quantity, booking_id, notes, person_name, is_paid, paid_amount, created_at`

func scanServiceLine(row pgx.Row) (OrderServiceLine, error) {
	var l OrderServiceLine
	err := row.Scan(&l.ID, &l.OrderID, &l.ServiceID, &l.Quantity, &l.BookingID,
		&l.Notes, &l.PersonName, &l.IsPaid, &l.PaidAmount, &l.CreatedAt)
	return l, err
}

type CreateOrderServiceLineParams struct {
	OrderID    uuid.UUID
	ServiceID  uuid.UUID
	Quantity   int32
	BookingID  pgtype.UUID
	Notes      pgtype.Text
	PersonName pgtype.Text
	IsPaid     bool
	PaidAmount pgtype.Numeric
}

func (q *Queries) CreateOrderServiceLine(ctx context.Context, arg CreateOrderServiceLineParams) (OrderServiceLine, error) {
	return scanServiceLine(q.db.QueryRow(ctx, `
		INSERT INTO order_service_lines (order_id, service_id, quantity, booking_id, notes, person_name, is_paid, paid_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+serviceLineColumns+`
	`, arg.OrderID, arg.ServiceID, arg.Quantity, arg.BookingID, arg.Notes,
		arg.PersonName, arg.IsPaid, arg.PaidAmount))
}

type GetOrderServiceLineParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetOrderServiceLine(ctx context.Context, arg GetOrderServiceLineParams) (OrderServiceLine, error) {
	return scanServiceLine(q.db.QueryRow(ctx, `
		SELECT `+serviceLineColumns+` FROM order_service_lines WHERE id = $1 AND order_id = $2
	`, arg.ID, arg.OrderID))
}

func (q *Queries) ListOrderServiceLines(ctx context.Context, orderID uuid.UUID) ([]OrderServiceLine, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+serviceLineColumns+` FROM order_service_lines WHERE order_id = $1 ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderServiceLine
	for rows.Next() {
		l, err := scanServiceLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateOrderServiceLinePayment(ctx context.Context, arg UpdateLinePaymentParams) (OrderServiceLine, error) {
	return scanServiceLine(q.db.QueryRow(ctx, `
		UPDATE order_service_lines SET person_name = $2, is_paid = $3, paid_amount = $4
		WHERE id = $1
		RETURNING `+serviceLineColumns+`
	`, arg.ID, arg.PersonName, arg.IsPaid, arg.PaidAmount))
}
