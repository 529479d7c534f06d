package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/inventory"
	"github.com/sufra-pos/api/internal/middleware"
	"github.com/sufra-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	Detail(ctx context.Context, orderID uuid.UUID) (*service.OrderResult, error)
	List(ctx context.Context, req service.ListOrdersRequest) ([]database.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error)
	UpdateLineItemQuantity(ctx context.Context, req service.UpdateLineQuantityRequest) (*service.OrderResult, error)
	UpdateLinePayment(ctx context.Context, req service.UpdateLinePaymentRequest) (*service.OrderResult, error)
	Split(ctx context.Context, orderID uuid.UUID) (*service.PaymentSplit, error)
	IngredientUsage(ctx context.Context, orderID uuid.UUID) ([]service.IngredientUsageEntry, error)
	CheckIngredients(ctx context.Context, orderID uuid.UUID) ([]service.StockShortfall, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Cancel)
	r.Patch("/{id}/lines/{kind}/{lid}/quantity", h.UpdateQuantity)
	r.Patch("/{id}/lines/{kind}/{lid}/payment", h.UpdatePayment)
	r.Get("/{id}/split", h.Split)
	r.Get("/{id}/ingredient-usage", h.IngredientUsage)
	r.Get("/{id}/stock-check", h.StockCheck)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableNumber   string                      `json:"table_number"`
	CustomerName  string                      `json:"customer_name"`
	CustomerPhone string                      `json:"customer_phone"`
	TaxEnabled    *bool                       `json:"tax_enabled"` // omitted means taxed
	TaxRate       string                      `json:"tax_rate"`
	Items         []createOrderItemRequest    `json:"items"`
	Services      []createOrderServiceRequest `json:"services"`
}

type createOrderItemRequest struct {
	MenuItemID string   `json:"menu_item_id"`
	Quantity   int32    `json:"quantity"`
	Notes      string   `json:"notes"`
	PersonName string   `json:"person_name"`
	OptionIDs  []string `json:"option_ids"`
	IsPaid     bool     `json:"is_paid"`
	PaidAmount string   `json:"paid_amount"`
}

type createOrderServiceRequest struct {
	ServiceID  string `json:"service_id"`
	Quantity   int32  `json:"quantity"`
	BookingID  string `json:"booking_id"`
	Notes      string `json:"notes"`
	PersonName string `json:"person_name"`
	IsPaid     bool   `json:"is_paid"`
	PaidAmount string `json:"paid_amount"`
}

type orderResponse struct {
	ID            uuid.UUID             `json:"id"`
	RefCode       string                `json:"ref_code"`
	TableNumber   *string               `json:"table_number"`
	CustomerName  string                `json:"customer_name"`
	CustomerPhone *string               `json:"customer_phone"`
	StaffID       *string               `json:"staff_id"`
	TaxEnabled    bool                  `json:"tax_enabled"`
	TaxRate       string                `json:"tax_rate"`
	PaymentStatus string                `json:"payment_status"`
	Cancelled     bool                  `json:"cancelled"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Items         []itemLineResponse    `json:"items"`
	Services      []serviceLineResponse `json:"services"`
	Subtotal      string                `json:"subtotal"`
	Tax           string                `json:"tax"`
	Total         string                `json:"total"`
}

type itemLineResponse struct {
	ID         uuid.UUID        `json:"id"`
	MenuItemID uuid.UUID        `json:"menu_item_id"`
	Name       string           `json:"name"`
	Quantity   int32            `json:"quantity"`
	UnitPrice  string           `json:"unit_price"`
	LineTotal  string           `json:"line_total"`
	Notes      *string          `json:"notes"`
	PersonName *string          `json:"person_name"`
	IsPaid     bool             `json:"is_paid"`
	PaidAmount string           `json:"paid_amount"`
	Options    []optionResponse `json:"options"`
}

type optionResponse struct {
	ID         uuid.UUID `json:"id"`
	Value      string    `json:"value"`
	ExtraPrice string    `json:"extra_price"`
}

type serviceLineResponse struct {
	ID         uuid.UUID `json:"id"`
	ServiceID  uuid.UUID `json:"service_id"`
	Name       string    `json:"name"`
	Quantity   int32     `json:"quantity"`
	LineTotal  string    `json:"line_total"`
	BookingID  *string   `json:"booking_id"`
	Notes      *string   `json:"notes"`
	PersonName *string   `json:"person_name"`
	IsPaid     bool      `json:"is_paid"`
	PaidAmount string    `json:"paid_amount"`
}

// orderSummaryResponse is the list view: order-level fields without lines.
type orderSummaryResponse struct {
	ID            uuid.UUID `json:"id"`
	RefCode       string    `json:"ref_code"`
	TableNumber   *string   `json:"table_number"`
	CustomerName  string    `json:"customer_name"`
	PaymentStatus string    `json:"payment_status"`
	Cancelled     bool      `json:"cancelled"`
	CreatedAt     time.Time `json:"created_at"`
}

type orderListResponse struct {
	Orders []orderSummaryResponse `json:"orders"`
	Limit  int32                  `json:"limit"`
	Offset int32                  `json:"offset"`
}

type updateQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type updatePaymentRequest struct {
	PersonName *string `json:"person_name"`
	IsPaid     *bool   `json:"is_paid"`
	PaidAmount *string `json:"paid_amount"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CreateOrderItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
			PersonName: item.PersonName,
			OptionIDs:  item.OptionIDs,
			IsPaid:     item.IsPaid,
			PaidAmount: item.PaidAmount,
		}
	}
	services := make([]service.CreateOrderServiceRequest, len(req.Services))
	for i, svc := range req.Services {
		services[i] = service.CreateOrderServiceRequest{
			ServiceID:  svc.ServiceID,
			Quantity:   svc.Quantity,
			BookingID:  svc.BookingID,
			Notes:      svc.Notes,
			PersonName: svc.PersonName,
			IsPaid:     svc.IsPaid,
			PaidAmount: svc.PaidAmount,
		}
	}

	// Orders are taxed unless the request opts out.
	taxEnabled := true
	if req.TaxEnabled != nil {
		taxEnabled = *req.TaxEnabled
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TableNumber:   req.TableNumber,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		StaffID:       claims.UserID,
		TaxEnabled:    taxEnabled,
		TaxRate:       req.TaxRate,
		Items:         items,
		Services:      services,
	})
	if err != nil {
		writeServiceError(w, err, "create order")
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result))
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var req service.ListOrdersRequest

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		req.From = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		// Inclusive end of day.
		req.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			req.Limit = int32(v)
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			req.Offset = int32(v)
		}
	}

	orders, err := h.svc.List(r.Context(), req)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderSummaryResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderSummary(o)
	}
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: req.Offset})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Detail(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, "get order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(result))
}

// Cancel handles DELETE /orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, "cancel order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderSummary(order))
}

// UpdateQuantity handles PATCH /orders/{id}/lines/{kind}/{lid}/quantity.
// Only item lines carry stock, so only kind "item" is accepted.
func (h *OrderHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	if kind := chi.URLParam(r, "kind"); kind != "item" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity can only change on item lines"})
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.UpdateLineItemQuantity(r.Context(), service.UpdateLineQuantityRequest{
		OrderID:  orderID,
		LineID:   lineID,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeServiceError(w, err, "update line quantity")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(result))
}

// UpdatePayment handles PATCH /orders/{id}/lines/{kind}/{lid}/payment.
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.UpdateLinePayment(r.Context(), service.UpdateLinePaymentRequest{
		OrderID:    orderID,
		LineID:     lineID,
		Kind:       chi.URLParam(r, "kind"),
		PersonName: req.PersonName,
		IsPaid:     req.IsPaid,
		PaidAmount: req.PaidAmount,
	})
	if err != nil {
		writeServiceError(w, err, "update line payment")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(result))
}

// Split handles GET /orders/{id}/split.
func (h *OrderHandler) Split(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	split, err := h.svc.Split(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, "split order")
		return
	}
	writeJSON(w, http.StatusOK, split)
}

// IngredientUsage handles GET /orders/{id}/ingredient-usage.
func (h *OrderHandler) IngredientUsage(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	usage, err := h.svc.IngredientUsage(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, "order ingredient usage")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"usage": usage})
}

// StockCheck handles GET /orders/{id}/stock-check.
func (h *OrderHandler) StockCheck(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	shortfalls, err := h.svc.CheckIngredients(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, "order stock check")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"coverable":  len(shortfalls) == 0,
		"shortfalls": shortfalls,
	})
}

// --- Helpers ---

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, false
	}
	return orderID, true
}

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyOrder) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidMenuItemID) ||
		errors.Is(err, service.ErrInvalidOptionID) ||
		errors.Is(err, service.ErrInvalidServiceID) ||
		errors.Is(err, service.ErrInvalidBookingID) ||
		errors.Is(err, service.ErrInvalidTaxRate) ||
		errors.Is(err, service.ErrInvalidPaidAmount) ||
		errors.Is(err, service.ErrInvalidLineKind) ||
		errors.Is(err, service.ErrMenuItemHidden) ||
		errors.Is(err, service.ErrOptionMismatch) ||
		errors.Is(err, service.ErrServiceInactive) ||
		errors.Is(err, service.ErrBookingMismatch) ||
		errors.Is(err, service.ErrBookingRequired)
}

// isUnknownEntityError checks for references to entities that do not exist.
func isUnknownEntityError(err error) bool {
	return errors.Is(err, service.ErrOrderNotFound) ||
		errors.Is(err, service.ErrLineNotFound) ||
		errors.Is(err, service.ErrMenuItemNotFound) ||
		errors.Is(err, service.ErrOptionNotFound) ||
		errors.Is(err, service.ErrServiceNotFound) ||
		errors.Is(err, service.ErrBookingNotFound)
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	var stockErr *inventory.InsufficientStockError
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case isUnknownEntityError(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]string{"error": stockErr.Error()})
	case errors.Is(err, service.ErrAlreadyCancelled) || errors.Is(err, service.ErrOrderCancelled):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, inventory.ErrContentionTimeout):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "stock contention, please retry"})
	default:
		log.Printf("ERROR: %s: %v", action, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toOrderResponse(result *service.OrderResult) orderResponse {
	d := result.Detail
	o := d.Order

	resp := orderResponse{
		ID:            o.ID,
		RefCode:       o.RefCode,
		CustomerName:  o.CustomerName,
		TaxEnabled:    o.TaxEnabled,
		TaxRate:       database.NumericToDecimal(o.TaxRate).String(),
		PaymentStatus: o.PaymentStatus,
		Cancelled:     o.Cancelled,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Items:         []itemLineResponse{},
		Services:      []serviceLineResponse{},
		Subtotal:      result.Totals.Subtotal.RoundBank(2).StringFixed(2),
		Tax:           result.Totals.Tax.StringFixed(2),
		Total:         result.Totals.Total.StringFixed(2),
	}
	if o.TableNumber.Valid {
		resp.TableNumber = &o.TableNumber.String
	}
	if o.CustomerPhone.Valid {
		resp.CustomerPhone = &o.CustomerPhone.String
	}
	if o.StaffID.Valid {
		s := uuid.UUID(o.StaffID.Bytes).String()
		resp.StaffID = &s
	}

	for _, item := range d.Items {
		line := itemLineResponse{
			ID:         item.Line.ID,
			MenuItemID: item.Line.MenuItemID,
			Name:       item.Item.Name,
			Quantity:   item.Line.Quantity,
			UnitPrice:  service.UnitPrice(item.Item, item.Options).StringFixed(2),
			LineTotal:  service.ItemLineTotal(item).StringFixed(2),
			IsPaid:     item.Line.IsPaid,
			PaidAmount: database.NumericToDecimal(item.Line.PaidAmount).StringFixed(2),
			Options:    []optionResponse{},
		}
		if item.Line.Notes.Valid {
			line.Notes = &item.Line.Notes.String
		}
		if item.Line.PersonName.Valid {
			line.PersonName = &item.Line.PersonName.String
		}
		for _, opt := range item.Options {
			line.Options = append(line.Options, optionResponse{
				ID:         opt.ID,
				Value:      opt.Value,
				ExtraPrice: database.NumericToDecimal(opt.ExtraPrice).StringFixed(2),
			})
		}
		resp.Items = append(resp.Items, line)
	}

	for _, svc := range d.Services {
		line := serviceLineResponse{
			ID:         svc.Line.ID,
			ServiceID:  svc.Line.ServiceID,
			Name:       svc.Service.Name,
			Quantity:   svc.Line.Quantity,
			LineTotal:  service.ServiceLineTotal(svc).StringFixed(2),
			IsPaid:     svc.Line.IsPaid,
			PaidAmount: database.NumericToDecimal(svc.Line.PaidAmount).StringFixed(2),
		}
		if svc.Line.BookingID.Valid {
			s := uuid.UUID(svc.Line.BookingID.Bytes).String()
			line.BookingID = &s
		}
		if svc.Line.Notes.Valid {
			line.Notes = &svc.Line.Notes.String
		}
		if svc.Line.PersonName.Valid {
			line.PersonName = &svc.Line.PersonName.String
		}
		resp.Services = append(resp.Services, line)
	}

	return resp
}

func toOrderSummary(o database.Order) orderSummaryResponse {
	resp := orderSummaryResponse{
		ID:            o.ID,
		RefCode:       o.RefCode,
		CustomerName:  o.CustomerName,
		PaymentStatus: o.PaymentStatus,
		Cancelled:     o.Cancelled,
		CreatedAt:     o.CreatedAt,
	}
	if o.TableNumber.Valid {
		resp.TableNumber = &o.TableNumber.String
	}
	return resp
}
