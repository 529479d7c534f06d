package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/recipe"
)

// IngredientUsageEntry is one ingredient's total draw for an order.
type IngredientUsageEntry struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// IngredientUsage reports the merged ingredient usage of an order's item
// lines, resolved against current recipe definitions.
func (s *OrderService) IngredientUsage(ctx context.Context, orderID uuid.UUID) ([]IngredientUsageEntry, error) {
	result, err := s.Detail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	usage := recipe.Usage{}
	for _, item := range result.Detail.Items {
		u, err := storedLineUsage(ctx, s.store, item.Line, item.Line.Quantity)
		if err != nil {
			return nil, err
		}
		usage.Merge(u)
	}
	return s.usageEntries(ctx, usage)
}

// usageEntries joins a usage map with ingredient rows, in stable id order.
func (s *OrderService) usageEntries(ctx context.Context, usage recipe.Usage) ([]IngredientUsageEntry, error) {
	ids := usage.SortedIDs()
	if len(ids) == 0 {
		return []IngredientUsageEntry{}, nil
	}
	rows, err := s.store.ListIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	byID := make(map[uuid.UUID]database.Ingredient, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	entries := make([]IngredientUsageEntry, 0, len(ids))
	for _, id := range ids {
		row := byID[id]
		entries = append(entries, IngredientUsageEntry{
			IngredientID: id,
			Name:         row.Name,
			Unit:         row.Unit,
			Quantity:     usage[id],
		})
	}
	return entries, nil
}

// StockShortfall is one ingredient an order would overdraw at current stock.
type StockShortfall struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Name         string          `json:"name"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
}

// CheckIngredients compares an order's usage against current stock without
// taking locks. An empty result means the order is coverable right now; the
// answer can be stale by the time anything acts on it.
func (s *OrderService) CheckIngredients(ctx context.Context, orderID uuid.UUID) ([]StockShortfall, error) {
	result, err := s.Detail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	usage := recipe.Usage{}
	for _, item := range result.Detail.Items {
		u, err := storedLineUsage(ctx, s.store, item.Line, item.Line.Quantity)
		if err != nil {
			return nil, err
		}
		usage.Merge(u)
	}

	ids := usage.SortedIDs()
	shortfalls := []StockShortfall{}
	if len(ids) == 0 {
		return shortfalls, nil
	}
	rows, err := s.store.ListIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	for _, row := range rows {
		required := usage[row.ID]
		available := database.NumericToDecimal(row.QuantityInStock)
		if available.LessThan(required) {
			shortfalls = append(shortfalls, StockShortfall{
				IngredientID: row.ID,
				Name:         row.Name,
				Required:     required,
				Available:    available,
			})
		}
	}
	return shortfalls, nil
}

// MenuAvailability is a menu item with how many more units current stock
// supports. Unlimited marks items with no recipe lines at all.
type MenuAvailability struct {
	Item         database.MenuItem
	MaxAvailable int64
	Unlimited    bool
}

// ListMenuAvailability returns every visible menu item with its availability
// derived from the item's own recipe lines and current stock. Option recipes
// are not counted here; they only bind at order time.
func (s *OrderService) ListMenuAvailability(ctx context.Context) ([]MenuAvailability, error) {
	items, err := s.store.ListMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}

	out := make([]MenuAvailability, 0, len(items))
	for _, item := range items {
		lines, err := s.store.ListRecipeLinesByMenuItem(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("list recipe lines: %w", err)
		}

		stock := recipe.Stock{}
		if len(lines) > 0 {
			ids := make([]uuid.UUID, 0, len(lines))
			for _, l := range lines {
				ids = append(ids, l.IngredientID)
			}
			rows, err := s.store.ListIngredientsByIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("list ingredients: %w", err)
			}
			for _, row := range rows {
				stock[row.ID] = database.NumericToDecimal(row.QuantityInStock)
			}
		}

		max := recipe.MaxAvailable(lines, stock)
		out = append(out, MenuAvailability{
			Item:         item,
			MaxAvailable: max,
			Unlimited:    max == recipe.Unlimited,
		})
	}
	return out, nil
}

// RevenueReport aggregates order money figures over a window. Figures are
// derived line by line; cancelled orders are counted but excluded from the
// money columns.
type RevenueReport struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OrderCount     int             `json:"order_count"`
	CancelledCount int             `json:"cancelled_count"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	Collected      decimal.Decimal `json:"collected"`
	ByStatus       map[string]int  `json:"by_status"`
}

// Revenue builds the report for the window.
func (s *OrderService) Revenue(ctx context.Context, from, to time.Time) (*RevenueReport, error) {
	report := &RevenueReport{
		From:      from,
		To:        to,
		Subtotal:  decimal.Zero,
		Tax:       decimal.Zero,
		Total:     decimal.Zero,
		Collected: decimal.Zero,
		ByStatus:  map[string]int{},
	}

	const pageSize = 200
	var offset int32
	for {
		orders, err := s.List(ctx, ListOrdersRequest{From: from, To: to, Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, order := range orders {
			if order.Cancelled {
				report.CancelledCount++
				continue
			}
			detail, err := LoadOrderDetail(ctx, s.store, order)
			if err != nil {
				return nil, err
			}
			totals := Totals(detail)
			report.OrderCount++
			report.Subtotal = report.Subtotal.Add(totals.Subtotal)
			report.Tax = report.Tax.Add(totals.Tax)
			report.Total = report.Total.Add(totals.Total)
			report.Collected = report.Collected.Add(paidSum(detail))
			report.ByStatus[order.PaymentStatus]++
		}
		if len(orders) < pageSize {
			break
		}
		offset += pageSize
	}

	report.Subtotal = report.Subtotal.RoundBank(2)
	report.Collected = report.Collected.RoundBank(2)
	return report, nil
}
