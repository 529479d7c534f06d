package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/service"
)

// MenuServicer provides the availability view over the menu.
// Satisfied by *service.OrderService.
type MenuServicer interface {
	ListMenuAvailability(ctx context.Context) ([]service.MenuAvailability, error)
}

// MenuHandler serves the read-only menu view.
type MenuHandler struct {
	svc MenuServicer
}

func NewMenuHandler(svc MenuServicer) *MenuHandler {
	return &MenuHandler{svc: svc}
}

func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type menuItemResponse struct {
	ID            uuid.UUID `json:"id"`
	CategoryID    uuid.UUID `json:"category_id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	Price         string    `json:"price"`
	DiscountPrice *string   `json:"discount_price"`
	Sku           *string   `json:"sku"`
	MaxAvailable  *int64    `json:"max_available"` // null means unlimited
}

// List handles GET /menu. Every visible item is returned with how many more
// units current ingredient stock supports.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListMenuAvailability(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, entry := range items {
		resp[i] = toMenuItemResponse(entry)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": resp})
}

func toMenuItemResponse(entry service.MenuAvailability) menuItemResponse {
	item := entry.Item
	resp := menuItemResponse{
		ID:         item.ID,
		CategoryID: item.CategoryID,
		Name:       item.Name,
		Price:      database.NumericToDecimal(item.Price).StringFixed(2),
	}
	if item.Description.Valid {
		resp.Description = &item.Description.String
	}
	if d := database.NumericToDecimal(item.DiscountPrice); d.IsPositive() {
		s := d.StringFixed(2)
		resp.DiscountPrice = &s
	}
	if item.Sku.Valid {
		resp.Sku = &item.Sku.String
	}
	if !entry.Unlimited {
		max := entry.MaxAvailable
		resp.MaxAvailable = &max
	}
	return resp
}
