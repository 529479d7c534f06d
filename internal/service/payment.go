package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/enum"
)

// paidSum adds up the recorded paid amounts across every line of the order.
// Recorded amounts are trusted as-is; a line marked paid with a lower amount
// than its computed total still contributes only what was recorded.
func paidSum(d *OrderDetail) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range d.Items {
		sum = sum.Add(database.NumericToDecimal(item.Line.PaidAmount))
	}
	for _, svc := range d.Services {
		sum = sum.Add(database.NumericToDecimal(svc.Line.PaidAmount))
	}
	return sum
}

// derivePaymentStatus classifies an order by comparing what was paid against
// the current total. Overpayment still reads as paid, and a zero-total
// order with nothing outstanding is paid too.
func derivePaymentStatus(total, paid decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(total):
		return enum.PaymentStatusPaid
	case paid.IsPositive():
		return enum.PaymentStatusPartial
	default:
		return enum.PaymentStatusPending
	}
}

// SplitLine is one order line as it appears inside a split share.
type SplitLine struct {
	LineID   uuid.UUID       `json:"line_id"`
	Kind     string          `json:"kind"`
	Name     string          `json:"name"`
	Quantity int32           `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
	IsPaid   bool            `json:"is_paid"`
}

// PersonShare groups the lines assigned to one person with their running
// totals. Owed is Total minus Paid, floored at zero.
type PersonShare struct {
	PersonName string          `json:"person_name"`
	Lines      []SplitLine     `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	Paid       decimal.Decimal `json:"paid"`
	Owed       decimal.Decimal `json:"owed"`
}

// PaymentSplit is the per-person view of an order's bill. Lines with no
// person assigned land in Unassigned and belong to nobody's share.
// TotalPaid and TotalOwed aggregate the shares only; unassigned lines
// count toward OrderTotal but not toward either figure.
type PaymentSplit struct {
	Shares     []PersonShare   `json:"shares"`
	Unassigned []SplitLine     `json:"unassigned"`
	OrderTotal decimal.Decimal `json:"order_total"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	TotalOwed  decimal.Decimal `json:"total_owed"`
}

// SplitByPerson partitions an order's lines by assigned person name, in
// order of first appearance (item lines first, then service lines).
func SplitByPerson(d *OrderDetail) PaymentSplit {
	split := PaymentSplit{
		Shares:     []PersonShare{},
		Unassigned: []SplitLine{},
	}
	index := map[string]int{}

	add := func(person string, line SplitLine, paid decimal.Decimal) {
		if person == "" {
			split.Unassigned = append(split.Unassigned, line)
			return
		}
		i, ok := index[person]
		if !ok {
			i = len(split.Shares)
			index[person] = i
			split.Shares = append(split.Shares, PersonShare{
				PersonName: person,
				Lines:      []SplitLine{},
				Total:      decimal.Zero,
				Paid:       decimal.Zero,
			})
		}
		share := &split.Shares[i]
		share.Lines = append(share.Lines, line)
		share.Total = share.Total.Add(line.Total)
		share.Paid = share.Paid.Add(paid)
	}

	for _, item := range d.Items {
		add(item.Line.PersonName.String, SplitLine{
			LineID:   item.Line.ID,
			Kind:     enum.LineKindItem,
			Name:     item.Item.Name,
			Quantity: item.Line.Quantity,
			Total:    ItemLineTotal(item),
			IsPaid:   item.Line.IsPaid,
		}, database.NumericToDecimal(item.Line.PaidAmount))
	}
	for _, svc := range d.Services {
		add(svc.Line.PersonName.String, SplitLine{
			LineID:   svc.Line.ID,
			Kind:     enum.LineKindService,
			Name:     svc.Service.Name,
			Quantity: svc.Line.Quantity,
			Total:    ServiceLineTotal(svc),
			IsPaid:   svc.Line.IsPaid,
		}, database.NumericToDecimal(svc.Line.PaidAmount))
	}

	split.TotalPaid = decimal.Zero
	split.TotalOwed = decimal.Zero
	for i := range split.Shares {
		share := &split.Shares[i]
		share.Owed = share.Total.Sub(share.Paid)
		if share.Owed.IsNegative() {
			share.Owed = decimal.Zero
		}
		split.TotalPaid = split.TotalPaid.Add(share.Paid)
		split.TotalOwed = split.TotalOwed.Add(share.Owed)
	}

	split.OrderTotal = Totals(d).Total
	return split
}
