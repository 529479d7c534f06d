package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sufra-pos/api/internal/database"
)

// IngredientStore defines the database methods needed by ingredient handlers.
// Satisfied by *database.Queries.
type IngredientStore interface {
	ListIngredients(ctx context.Context) ([]database.Ingredient, error)
}

// IngredientHandler serves the admin stock view. Stock only moves through
// order transactions; there is no restock endpoint.
type IngredientHandler struct {
	store IngredientStore
}

func NewIngredientHandler(store IngredientStore) *IngredientHandler {
	return &IngredientHandler{store: store}
}

func (h *IngredientHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type ingredientResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Unit            string    `json:"unit"`
	QuantityInStock string    `json:"quantity_in_stock"`
	ReorderLevel    string    `json:"reorder_level"`
	LowStock        bool      `json:"low_stock"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// List handles GET /ingredients.
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.store.ListIngredients(r.Context())
	if err != nil {
		log.Printf("ERROR: list ingredients: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]ingredientResponse, len(ingredients))
	for i, ing := range ingredients {
		stock := database.NumericToDecimal(ing.QuantityInStock)
		reorder := database.NumericToDecimal(ing.ReorderLevel)
		resp[i] = ingredientResponse{
			ID:              ing.ID,
			Name:            ing.Name,
			Unit:            ing.Unit,
			QuantityInStock: stock.String(),
			ReorderLevel:    reorder.String(),
			LowStock:        stock.LessThanOrEqual(reorder),
			UpdatedAt:       ing.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ingredients": resp})
}
