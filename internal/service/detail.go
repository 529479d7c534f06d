package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sufra-pos/api/internal/database"
)

// LoadOrderDetail joins an order's lines with their catalog rows. Works on
// any store, inside or outside a transaction.
func LoadOrderDetail(ctx context.Context, store OrderStore, order database.Order) (*OrderDetail, error) {
	detail := &OrderDetail{Order: order}

	lines, err := store.ListOrderLineItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	for _, line := range lines {
		item, err := store.GetMenuItem(ctx, line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("get menu item: %w", err)
		}
		options, err := store.ListLineItemOptions(ctx, line.ID)
		if err != nil {
			return nil, fmt.Errorf("list line options: %w", err)
		}
		detail.Items = append(detail.Items, ItemLineDetail{
			Line:    line,
			Item:    item,
			Options: options,
		})
	}

	serviceLines, err := store.ListOrderServiceLines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list service lines: %w", err)
	}
	for _, line := range serviceLines {
		svc, err := store.GetService(ctx, line.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("get service: %w", err)
		}
		detail.Services = append(detail.Services, ServiceLineDetail{
			Line:    line,
			Service: svc,
		})
	}
	return detail, nil
}

// Detail loads one order with totals.
func (s *OrderService) Detail(ctx context.Context, orderID uuid.UUID) (*OrderResult, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	detail, err := LoadOrderDetail(ctx, s.store, order)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Detail: detail, Totals: Totals(detail)}, nil
}

// ListOrdersRequest bounds a listing. Zero times leave that side open.
type ListOrdersRequest struct {
	From   time.Time
	To     time.Time
	Limit  int32
	Offset int32
}

// List returns orders in the window, newest first.
func (s *OrderService) List(ctx context.Context, req ListOrdersRequest) ([]database.Order, error) {
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}
	params := database.ListOrdersBetweenParams{Limit: req.Limit, Offset: req.Offset}
	if !req.From.IsZero() {
		params.StartDate = pgtype.Timestamptz{Time: req.From, Valid: true}
	}
	if !req.To.IsZero() {
		params.EndDate = pgtype.Timestamptz{Time: req.To, Valid: true}
	}
	return s.store.ListOrdersBetween(ctx, params)
}

// Split loads an order and partitions its bill by assigned person.
func (s *OrderService) Split(ctx context.Context, orderID uuid.UUID) (*PaymentSplit, error) {
	result, err := s.Detail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	split := SplitByPerson(result.Detail)
	return &split, nil
}
