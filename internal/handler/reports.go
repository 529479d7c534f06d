package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sufra-pos/api/internal/service"
)

// ReportServicer provides the revenue aggregation.
// Satisfied by *service.OrderService.
type ReportServicer interface {
	Revenue(ctx context.Context, from, to time.Time) (*service.RevenueReport, error)
}

// ReportsHandler handles reporting endpoints.
type ReportsHandler struct {
	svc ReportServicer
}

func NewReportsHandler(svc ReportServicer) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/revenue", h.Revenue)
}

// Revenue handles GET /reports/revenue?start_date=…&end_date=…
// Bounds are required; there is no implicit window.
func (h *ReportsHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("start_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date is required, use YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("end_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date is required, use YYYY-MM-DD"})
		return
	}
	// Inclusive end of day.
	to = to.Add(24*time.Hour - time.Nanosecond)

	report, err := h.svc.Revenue(r.Context(), from, to)
	if err != nil {
		log.Printf("ERROR: revenue report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
