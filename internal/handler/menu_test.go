package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/handler"
	"github.com/sufra-pos/api/internal/service"
)

type mockMenuServicer struct {
	items []service.MenuAvailability
	err   error
}

func (m *mockMenuServicer) ListMenuAvailability(context.Context) ([]service.MenuAvailability, error) {
	return m.items, m.err
}

func menuRouter(svc handler.MenuServicer) chi.Router {
	r := chi.NewRouter()
	r.Route("/menu", handler.NewMenuHandler(svc).RegisterRoutes)
	return r
}

func TestListMenu(t *testing.T) {
	svc := &mockMenuServicer{
		items: []service.MenuAvailability{
			{
				Item: database.MenuItem{
					ID:         uuid.New(),
					CategoryID: uuid.New(),
					Name:       "Shakshuka",
					Price:      numeric(t, "8.00"),
					Visible:    true,
				},
				MaxAvailable: 12,
			},
			{
				Item: database.MenuItem{
					ID:            uuid.New(),
					CategoryID:    uuid.New(),
					Name:          "Flatbread",
					Price:         numeric(t, "3.50"),
					DiscountPrice: numeric(t, "3.00"),
					Sku:           pgtype.Text{String: "FB-01", Valid: true},
					Visible:       true,
				},
				Unlimited: true,
			},
		},
	}

	rr := doJSON(t, menuRouter(svc), "GET", "/menu", "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	items, ok := resp["items"].([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("items: got %v", resp["items"])
	}

	first := items[0].(map[string]interface{})
	if first["name"] != "Shakshuka" {
		t.Errorf("name: got %v", first["name"])
	}
	if first["price"] != "8.00" {
		t.Errorf("price: got %v, want 8.00", first["price"])
	}
	if first["max_available"].(float64) != 12 {
		t.Errorf("max_available: got %v, want 12", first["max_available"])
	}
	if first["discount_price"] != nil {
		t.Errorf("discount_price should be null, got %v", first["discount_price"])
	}

	second := items[1].(map[string]interface{})
	if second["discount_price"] != "3.00" {
		t.Errorf("discount_price: got %v, want 3.00", second["discount_price"])
	}
	if second["max_available"] != nil {
		t.Errorf("unlimited item should have null max_available, got %v", second["max_available"])
	}
	if second["sku"] != "FB-01" {
		t.Errorf("sku: got %v, want FB-01", second["sku"])
	}
}

func TestListMenu_Empty(t *testing.T) {
	rr := doJSON(t, menuRouter(&mockMenuServicer{items: []service.MenuAvailability{}}), "GET", "/menu", "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}
