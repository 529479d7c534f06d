package service

import (
	"github.com/shopspring/decimal"
	"github.com/sufra-pos/api/internal/database"
)

// OrderDetail is a fully loaded order: its lines joined with the catalog
// rows they price against. Every money figure in the system is derived from
// this view; totals are never cached.
type OrderDetail struct {
	Order    database.Order
	Items    []ItemLineDetail
	Services []ServiceLineDetail
}

type ItemLineDetail struct {
	Line    database.OrderLineItem
	Item    database.MenuItem
	Options []database.VariationOption
}

type ServiceLineDetail struct {
	Line    database.OrderServiceLine
	Service database.Service
}

// OrderTotals carries the derived money figures. Tax and Total are rounded
// to 2 decimal places with banker's rounding; nothing upstream of them is.
type OrderTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// UnitPrice is the per-unit price of an item line: the discount price when
// one is set above zero, the list price otherwise, plus the extra price of
// every selected variation option.
func UnitPrice(item database.MenuItem, options []database.VariationOption) decimal.Decimal {
	price := database.NumericToDecimal(item.Price)
	if discount := database.NumericToDecimal(item.DiscountPrice); discount.IsPositive() {
		price = discount
	}
	for _, opt := range options {
		price = price.Add(database.NumericToDecimal(opt.ExtraPrice))
	}
	return price
}

// ItemLineTotal is unit price times quantity, unrounded.
func ItemLineTotal(d ItemLineDetail) decimal.Decimal {
	return UnitPrice(d.Item, d.Options).Mul(decimal.NewFromInt32(d.Line.Quantity))
}

// ServiceLineTotal is the service price times quantity, unrounded.
func ServiceLineTotal(d ServiceLineDetail) decimal.Decimal {
	return database.NumericToDecimal(d.Service.Price).Mul(decimal.NewFromInt32(d.Line.Quantity))
}

// Subtotal sums every item and service line of the order.
func Subtotal(d *OrderDetail) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range d.Items {
		sum = sum.Add(ItemLineTotal(item))
	}
	for _, svc := range d.Services {
		sum = sum.Add(ServiceLineTotal(svc))
	}
	return sum
}

// Totals derives subtotal, tax and total. Tax applies the order's rate (4
// decimal places) to the unrounded subtotal when tax is enabled; only the
// final tax and total round.
func Totals(d *OrderDetail) OrderTotals {
	subtotal := Subtotal(d)
	tax := decimal.Zero
	if d.Order.TaxEnabled {
		tax = subtotal.Mul(database.NumericToDecimal(d.Order.TaxRate))
	}
	total := subtotal.Add(tax)
	return OrderTotals{
		Subtotal: subtotal,
		Tax:      tax.RoundBank(2),
		Total:    total.RoundBank(2),
	}
}
