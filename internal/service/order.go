package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/enum"
	"github.com/sufra-pos/api/internal/inventory"
	"github.com/sufra-pos/api/internal/recipe"
)

const maxRefCodeRetries = 3

// defaultTaxRate applies when an order does not carry its own rate.
var defaultTaxRate = decimal.RequireFromString("0.1400")

// Errors returned by the order service.
var (
	ErrEmptyOrder        = errors.New("order needs at least one item or service line")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID = errors.New("invalid menu_item_id")
	ErrInvalidOptionID   = errors.New("invalid option_id")
	ErrInvalidServiceID  = errors.New("invalid service_id")
	ErrInvalidBookingID  = errors.New("invalid booking_id")
	ErrInvalidTaxRate    = errors.New("invalid tax_rate")
	ErrInvalidPaidAmount = errors.New("invalid paid_amount")
	ErrInvalidLineKind   = errors.New("invalid line kind")
	ErrMenuItemNotFound  = errors.New("menu item not found")
	ErrMenuItemHidden    = errors.New("menu item is not visible")
	ErrOptionNotFound    = errors.New("variation option not found")
	ErrOptionMismatch    = errors.New("variation option does not belong to menu item")
	ErrServiceNotFound   = errors.New("service not found")
	ErrServiceInactive   = errors.New("service is not active")
	ErrBookingNotFound   = errors.New("service booking not found")
	ErrBookingMismatch   = errors.New("booking does not belong to service")
	ErrBookingRequired   = errors.New("service requires a booking")
	ErrOrderNotFound     = errors.New("order not found")
	ErrLineNotFound      = errors.New("order line not found")
	ErrOrderCancelled    = errors.New("order is cancelled")
	ErrAlreadyCancelled  = errors.New("order is already cancelled")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	inventory.Store

	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	GetVariationOption(ctx context.Context, id uuid.UUID) (database.GetVariationOptionRow, error)
	ListRecipeLinesByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]database.RecipeLine, error)
	ListRecipeLinesByVariationOption(ctx context.Context, optionID uuid.UUID) ([]database.RecipeLine, error)
	ListIngredientsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.Ingredient, error)
	GetService(ctx context.Context, id uuid.UUID) (database.Service, error)
	GetServiceBooking(ctx context.Context, id uuid.UUID) (database.ServiceBooking, error)

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrdersBetween(ctx context.Context, arg database.ListOrdersBetweenParams) ([]database.Order, error)
	MarkOrderCancelled(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, id uuid.UUID, status string) (database.Order, error)

	CreateOrderLineItem(ctx context.Context, arg database.CreateOrderLineItemParams) (database.OrderLineItem, error)
	AddOrderLineItemOption(ctx context.Context, lineItemID, optionID uuid.UUID) error
	GetOrderLineItem(ctx context.Context, arg database.GetOrderLineItemParams) (database.OrderLineItem, error)
	ListOrderLineItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderLineItem, error)
	ListLineItemOptions(ctx context.Context, lineItemID uuid.UUID) ([]database.VariationOption, error)
	UpdateOrderLineItemQuantity(ctx context.Context, arg database.UpdateOrderLineItemQuantityParams) (database.OrderLineItem, error)
	UpdateOrderLineItemPayment(ctx context.Context, arg database.UpdateLinePaymentParams) (database.OrderLineItem, error)
	CreateOrderServiceLine(ctx context.Context, arg database.CreateOrderServiceLineParams) (database.OrderServiceLine, error)
	GetOrderServiceLine(ctx context.Context, arg database.GetOrderServiceLineParams) (database.OrderServiceLine, error)
	ListOrderServiceLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderServiceLine, error)
	UpdateOrderServiceLinePayment(ctx context.Context, arg database.UpdateLinePaymentParams) (database.OrderServiceLine, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// Notifier receives events after the owning transaction has committed.
// Implementations must not fail the request path.
type Notifier interface {
	OrderCreated(ctx context.Context, order database.Order)
	OrderCancelled(ctx context.Context, order database.Order)
	LowStock(ctx context.Context, alerts []inventory.LowStockAlert)
}

// CreateOrderRequest is the input for creating an order.
type CreateOrderRequest struct {
	TableNumber   string
	CustomerName  string
	CustomerPhone string
	StaffID       uuid.UUID
	TaxEnabled    bool
	TaxRate       string // decimal string; empty uses the default rate
	Items         []CreateOrderItemRequest
	Services      []CreateOrderServiceRequest
}

// CreateOrderItemRequest is a single menu item line in the order. A line
// can arrive already settled: IsPaid and PaidAmount are recorded as given
// and feed the order's initial payment status.
type CreateOrderItemRequest struct {
	MenuItemID string
	Quantity   int32
	Notes      string
	PersonName string
	OptionIDs  []string
	IsPaid     bool
	PaidAmount string // decimal string; empty means nothing paid
}

// CreateOrderServiceRequest is a single service line in the order.
type CreateOrderServiceRequest struct {
	ServiceID  string
	Quantity   int32
	BookingID  string
	Notes      string
	PersonName string
	IsPaid     bool
	PaidAmount string // decimal string; empty means nothing paid
}

// OrderResult is a created or reloaded order with derived totals.
type OrderResult struct {
	Detail *OrderDetail
	Totals OrderTotals
}

// OrderService coordinates order mutations: every write runs inside one
// transaction together with its stock movement, so an order and its
// ingredient reservation commit or roll back as a unit.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
	ledger   *inventory.Ledger
	notify   Notifier
}

// NewOrderService creates a new OrderService. store handles reads outside
// transactions and is typically backed by the same pool as pool.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore, ledger *inventory.Ledger, notify Notifier) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore, ledger: ledger, notify: notify}
}

// newRefCode returns a short uppercase order reference.
func newRefCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// isRefCodeConflict checks if the error is a unique constraint violation on
// the order ref code (pgconn error code 23505).
func isRefCodeConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_ref_code_key"
	}
	return false
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// parsePaidAmount turns an optional decimal string into an amount.
// Empty means zero; negative values are rejected.
func parsePaidAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	amt, err := decimal.NewFromString(s)
	if err != nil || amt.IsNegative() {
		return decimal.Decimal{}, ErrInvalidPaidAmount
	}
	return amt, nil
}

// CreateOrder validates, reserves ingredient stock, and creates an order
// atomically. Retries up to maxRefCodeRetries times on ref_code unique
// constraint violations (two transactions can draw the same short code).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if len(req.Items) == 0 && len(req.Services) == 0 {
		return nil, ErrEmptyOrder
	}

	taxRate := defaultTaxRate
	if req.TaxRate != "" {
		r, err := decimal.NewFromString(req.TaxRate)
		if err != nil || r.IsNegative() || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, ErrInvalidTaxRate
		}
		taxRate = r
	}

	var lastErr error
	for attempt := 0; attempt < maxRefCodeRetries; attempt++ {
		result, alerts, err := s.createOrderTx(ctx, req, taxRate)
		if err == nil {
			s.published(ctx, result.Detail.Order, alerts, false)
			return result, nil
		}
		if isRefCodeConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// published fires post-commit notifications. Failures inside the notifier
// never reach the caller.
func (s *OrderService) published(ctx context.Context, order database.Order, alerts []inventory.LowStockAlert, cancelled bool) {
	if s.notify == nil {
		return
	}
	if cancelled {
		s.notify.OrderCancelled(ctx, order)
	} else {
		s.notify.OrderCreated(ctx, order)
	}
	if len(alerts) > 0 {
		s.notify.LowStock(ctx, alerts)
	}
}

// processedLine holds a validated item line ready to insert.
type processedLine struct {
	params  database.CreateOrderLineItemParams
	item    database.MenuItem
	options []database.VariationOption
}

// processedService holds a validated service line ready to insert.
type processedService struct {
	params  database.CreateOrderServiceLineParams
	service database.Service
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, taxRate decimal.Decimal) (*OrderResult, []inventory.LowStockAlert, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Validate item lines and merge ingredient usage ---
	usage := recipe.Usage{}
	var lines []processedLine

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
		}
		menuItem, err := store.GetMenuItem(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		if !menuItem.Visible {
			return nil, nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemHidden)
		}

		var options []database.VariationOption
		optionIDs := make([]uuid.UUID, 0, len(item.OptionIDs))
		for j, rawID := range item.OptionIDs {
			optID, err := uuid.Parse(rawID)
			if err != nil {
				return nil, nil, fmt.Errorf("items[%d].options[%d]: %w", i, j, ErrInvalidOptionID)
			}
			opt, err := store.GetVariationOption(ctx, optID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, nil, fmt.Errorf("items[%d].options[%d]: %w", i, j, ErrOptionNotFound)
				}
				return nil, nil, fmt.Errorf("items[%d].options[%d]: get option: %w", i, j, err)
			}
			if opt.MenuItemID != menuItemID {
				return nil, nil, fmt.Errorf("items[%d].options[%d]: %w", i, j, ErrOptionMismatch)
			}
			options = append(options, database.VariationOption{
				ID:          opt.ID,
				VariationID: opt.VariationID,
				Value:       opt.Value,
				ExtraPrice:  opt.ExtraPrice,
			})
			optionIDs = append(optionIDs, optID)
		}

		u, err := lineUsage(ctx, store, menuItemID, optionIDs, item.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		usage.Merge(u)

		paid, err := parsePaidAmount(item.PaidAmount)
		if err != nil {
			return nil, nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		lines = append(lines, processedLine{
			params: database.CreateOrderLineItemParams{
				MenuItemID: menuItemID,
				Quantity:   item.Quantity,
				Notes:      textOrNull(item.Notes),
				PersonName: textOrNull(item.PersonName),
				IsPaid:     item.IsPaid,
				PaidAmount: database.DecimalToNumeric(paid),
			},
			item:    menuItem,
			options: options,
		})
	}

	// --- Validate service lines ---
	var serviceLines []processedService
	for i, svc := range req.Services {
		if svc.Quantity <= 0 {
			return nil, nil, fmt.Errorf("services[%d]: %w", i, ErrInvalidQuantity)
		}
		serviceID, err := uuid.Parse(svc.ServiceID)
		if err != nil {
			return nil, nil, fmt.Errorf("services[%d]: %w", i, ErrInvalidServiceID)
		}
		service, err := store.GetService(ctx, serviceID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, fmt.Errorf("services[%d]: %w", i, ErrServiceNotFound)
			}
			return nil, nil, fmt.Errorf("services[%d]: get service: %w", i, err)
		}
		if !service.IsActive {
			return nil, nil, fmt.Errorf("services[%d]: %w", i, ErrServiceInactive)
		}

		bookingID := pgtype.UUID{}
		if svc.BookingID != "" {
			bid, err := uuid.Parse(svc.BookingID)
			if err != nil {
				return nil, nil, fmt.Errorf("services[%d]: %w", i, ErrInvalidBookingID)
			}
			booking, err := store.GetServiceBooking(ctx, bid)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, nil, fmt.Errorf("services[%d]: %w", i, ErrBookingNotFound)
				}
				return nil, nil, fmt.Errorf("services[%d]: get booking: %w", i, err)
			}
			if booking.ServiceID != serviceID {
				return nil, nil, fmt.Errorf("services[%d]: %w", i, ErrBookingMismatch)
			}
			bookingID = pgtype.UUID{Bytes: bid, Valid: true}
		} else if service.RequiresBooking {
			return nil, nil, fmt.Errorf("services[%d]: %w", i, ErrBookingRequired)
		}

		paid, err := parsePaidAmount(svc.PaidAmount)
		if err != nil {
			return nil, nil, fmt.Errorf("services[%d]: %w", i, err)
		}
		serviceLines = append(serviceLines, processedService{
			params: database.CreateOrderServiceLineParams{
				ServiceID:  serviceID,
				Quantity:   svc.Quantity,
				BookingID:  bookingID,
				Notes:      textOrNull(svc.Notes),
				PersonName: textOrNull(svc.PersonName),
				IsPaid:     svc.IsPaid,
				PaidAmount: database.DecimalToNumeric(paid),
			},
			service: service,
		})
	}

	// --- Reserve stock for the whole order ---
	alerts, err := s.ledger.Reserve(ctx, store, usage)
	if err != nil {
		return nil, nil, err
	}

	// --- Insert order ---
	staffID := pgtype.UUID{}
	if req.StaffID != uuid.Nil {
		staffID = pgtype.UUID{Bytes: req.StaffID, Valid: true}
	}
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		RefCode:       newRefCode(),
		TableNumber:   textOrNull(req.TableNumber),
		CustomerName:  req.CustomerName,
		CustomerPhone: textOrNull(req.CustomerPhone),
		StaffID:       staffID,
		TaxEnabled:    req.TaxEnabled,
		TaxRate:       database.DecimalToNumeric(taxRate),
		PaymentStatus: enum.PaymentStatusPending,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert lines ---
	detail := &OrderDetail{Order: order}
	for _, pl := range lines {
		pl.params.OrderID = order.ID
		line, err := store.CreateOrderLineItem(ctx, pl.params)
		if err != nil {
			return nil, nil, fmt.Errorf("create line item: %w", err)
		}
		for _, opt := range pl.options {
			if err := store.AddOrderLineItemOption(ctx, line.ID, opt.ID); err != nil {
				return nil, nil, fmt.Errorf("add line option: %w", err)
			}
		}
		detail.Items = append(detail.Items, ItemLineDetail{
			Line:    line,
			Item:    pl.item,
			Options: pl.options,
		})
	}
	for _, ps := range serviceLines {
		ps.params.OrderID = order.ID
		line, err := store.CreateOrderServiceLine(ctx, ps.params)
		if err != nil {
			return nil, nil, fmt.Errorf("create service line: %w", err)
		}
		detail.Services = append(detail.Services, ServiceLineDetail{
			Line:    line,
			Service: ps.service,
		})
	}

	// Lines can arrive pre-paid, so the initial status is derived from
	// the recorded amounts rather than assumed pending.
	totals := Totals(detail)
	status := derivePaymentStatus(totals.Total, paidSum(detail))
	if status != order.PaymentStatus {
		updated, err := store.UpdateOrderPaymentStatus(ctx, order.ID, status)
		if err != nil {
			return nil, nil, fmt.Errorf("update payment status: %w", err)
		}
		detail.Order = updated
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Detail: detail, Totals: totals}, alerts, nil
}

// lineUsage resolves the merged ingredient usage of one item line: the menu
// item's own recipe plus the recipes of every selected option.
func lineUsage(ctx context.Context, store OrderStore, menuItemID uuid.UUID, optionIDs []uuid.UUID, quantity int32) (recipe.Usage, error) {
	recipeLines, err := store.ListRecipeLinesByMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, fmt.Errorf("list recipe lines: %w", err)
	}
	for _, optID := range optionIDs {
		optLines, err := store.ListRecipeLinesByVariationOption(ctx, optID)
		if err != nil {
			return nil, fmt.Errorf("list option recipe lines: %w", err)
		}
		recipeLines = append(recipeLines, optLines...)
	}
	return recipe.Resolve(recipeLines, quantity)
}

// storedLineUsage resolves usage for a line already in the database, using
// its persisted option selection.
func storedLineUsage(ctx context.Context, store OrderStore, line database.OrderLineItem, quantity int32) (recipe.Usage, error) {
	options, err := store.ListLineItemOptions(ctx, line.ID)
	if err != nil {
		return nil, fmt.Errorf("list line options: %w", err)
	}
	optionIDs := make([]uuid.UUID, 0, len(options))
	for _, opt := range options {
		optionIDs = append(optionIDs, opt.ID)
	}
	return lineUsage(ctx, store, line.MenuItemID, optionIDs, quantity)
}

// UpdateLineQuantityRequest identifies an item line and its new quantity.
type UpdateLineQuantityRequest struct {
	OrderID  uuid.UUID
	LineID   uuid.UUID
	Quantity int32
}

// UpdateLineItemQuantity changes an item line's quantity and settles the
// stock difference in the same transaction: an increase reserves the extra
// usage, a decrease releases it. Payment status is left untouched; recorded
// payments stay valid even when the total moves.
func (s *OrderService) UpdateLineItemQuantity(ctx context.Context, req UpdateLineQuantityRequest) (*OrderResult, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, req.OrderID)
	if err != nil {
		return nil, err
	}
	line, err := store.GetOrderLineItem(ctx, database.GetOrderLineItemParams{ID: req.LineID, OrderID: order.ID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("get line item: %w", err)
	}

	var alerts []inventory.LowStockAlert
	switch delta := req.Quantity - line.Quantity; {
	case delta > 0:
		usage, err := storedLineUsage(ctx, store, line, delta)
		if err != nil {
			return nil, err
		}
		alerts, err = s.ledger.Reserve(ctx, store, usage)
		if err != nil {
			return nil, err
		}
	case delta < 0:
		usage, err := storedLineUsage(ctx, store, line, -delta)
		if err != nil {
			return nil, err
		}
		if err := s.ledger.Release(ctx, store, usage); err != nil {
			return nil, err
		}
	}

	if _, err := store.UpdateOrderLineItemQuantity(ctx, database.UpdateOrderLineItemQuantityParams{
		ID:       line.ID,
		Quantity: req.Quantity,
	}); err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}

	detail, err := LoadOrderDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if s.notify != nil && len(alerts) > 0 {
		s.notify.LowStock(ctx, alerts)
	}
	return &OrderResult{Detail: detail, Totals: Totals(detail)}, nil
}

// CancelOrder marks an order cancelled and returns the ingredient stock its
// item lines consumed. Service lines hold no stock, so they restore nothing.
// Refunds are out of scope: recorded payments stay on the cancelled order.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if order.Cancelled {
		return database.Order{}, ErrAlreadyCancelled
	}

	lines, err := store.ListOrderLineItems(ctx, order.ID)
	if err != nil {
		return database.Order{}, fmt.Errorf("list line items: %w", err)
	}
	usage := recipe.Usage{}
	for _, line := range lines {
		u, err := storedLineUsage(ctx, store, line, line.Quantity)
		if err != nil {
			return database.Order{}, err
		}
		usage.Merge(u)
	}
	if err := s.ledger.Release(ctx, store, usage); err != nil {
		return database.Order{}, err
	}

	order, err = store.MarkOrderCancelled(ctx, order.ID)
	if err != nil {
		return database.Order{}, fmt.Errorf("mark cancelled: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.published(ctx, order, nil, true)
	return order, nil
}

// UpdateLinePaymentRequest is a partial update of one line's payment fields.
// Nil pointers leave the stored value alone.
type UpdateLinePaymentRequest struct {
	OrderID    uuid.UUID
	LineID     uuid.UUID
	Kind       string // enum.LineKindItem or enum.LineKindService
	PersonName *string
	IsPaid     *bool
	PaidAmount *string // decimal string
}

// UpdateLinePayment applies the given payment fields to a line and derives
// the order's payment status from the updated state, all in one transaction.
// Marking a line paid without an explicit amount records the line's current
// computed total.
func (s *OrderService) UpdateLinePayment(ctx context.Context, req UpdateLinePaymentRequest) (*OrderResult, error) {
	if req.Kind != enum.LineKindItem && req.Kind != enum.LineKindService {
		return nil, ErrInvalidLineKind
	}

	var explicitAmount decimal.Decimal
	hasAmount := req.PaidAmount != nil
	if hasAmount {
		amt, err := decimal.NewFromString(*req.PaidAmount)
		if err != nil || amt.IsNegative() {
			return nil, ErrInvalidPaidAmount
		}
		explicitAmount = amt
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, req.OrderID)
	if err != nil {
		return nil, err
	}

	// Current stored fields for the targeted line.
	var person pgtype.Text
	var isPaid bool
	var paid decimal.Decimal

	switch req.Kind {
	case enum.LineKindItem:
		line, err := store.GetOrderLineItem(ctx, database.GetOrderLineItemParams{ID: req.LineID, OrderID: order.ID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrLineNotFound
			}
			return nil, fmt.Errorf("get line item: %w", err)
		}
		person, isPaid, paid = line.PersonName, line.IsPaid, database.NumericToDecimal(line.PaidAmount)
	case enum.LineKindService:
		line, err := store.GetOrderServiceLine(ctx, database.GetOrderServiceLineParams{ID: req.LineID, OrderID: order.ID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrLineNotFound
			}
			return nil, fmt.Errorf("get service line: %w", err)
		}
		person, isPaid, paid = line.PersonName, line.IsPaid, database.NumericToDecimal(line.PaidAmount)
	}

	if req.PersonName != nil {
		person = textOrNull(*req.PersonName)
	}
	if req.IsPaid != nil {
		isPaid = *req.IsPaid
	}
	if hasAmount {
		paid = explicitAmount
	}

	params := database.UpdateLinePaymentParams{
		ID:         req.LineID,
		PersonName: person,
		IsPaid:     isPaid,
		PaidAmount: database.DecimalToNumeric(paid),
	}
	update := func() error {
		var err error
		if req.Kind == enum.LineKindItem {
			_, err = store.UpdateOrderLineItemPayment(ctx, params)
		} else {
			_, err = store.UpdateOrderServiceLinePayment(ctx, params)
		}
		return err
	}
	if err := update(); err != nil {
		return nil, fmt.Errorf("update line payment: %w", err)
	}

	detail, err := LoadOrderDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}

	// Fill in the computed line total when the line was just marked paid
	// with no amount on record.
	if isPaid && !hasAmount && paid.IsZero() {
		if total, ok := lineTotalByID(detail, req.Kind, req.LineID); ok && total.IsPositive() {
			params.PaidAmount = database.DecimalToNumeric(total)
			if err := update(); err != nil {
				return nil, fmt.Errorf("record line total: %w", err)
			}
			detail, err = LoadOrderDetail(ctx, store, order)
			if err != nil {
				return nil, err
			}
		}
	}

	totals := Totals(detail)
	status := derivePaymentStatus(totals.Total, paidSum(detail))
	if status != order.PaymentStatus {
		updated, err := store.UpdateOrderPaymentStatus(ctx, order.ID, status)
		if err != nil {
			return nil, fmt.Errorf("update payment status: %w", err)
		}
		detail.Order = updated
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &OrderResult{Detail: detail, Totals: totals}, nil
}

// lockOrder loads the order under FOR UPDATE and rejects cancelled orders.
func lockOrder(ctx context.Context, store OrderStore, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if order.Cancelled {
		return database.Order{}, ErrOrderCancelled
	}
	return order, nil
}

// lineTotalByID finds one line's computed total inside a loaded detail.
func lineTotalByID(d *OrderDetail, kind string, lineID uuid.UUID) (decimal.Decimal, bool) {
	if kind == enum.LineKindItem {
		for _, item := range d.Items {
			if item.Line.ID == lineID {
				return ItemLineTotal(item), true
			}
		}
		return decimal.Zero, false
	}
	for _, svc := range d.Services {
		if svc.Line.ID == lineID {
			return ServiceLineTotal(svc), true
		}
	}
	return decimal.Zero, false
}
