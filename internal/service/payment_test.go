package service

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/enum"
)

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		name  string
		total string
		paid  string
		want  string
	}{
		{"nothing paid", "20.00", "0", enum.PaymentStatusPending},
		{"partly paid", "20.00", "5.00", enum.PaymentStatusPartial},
		{"fully paid", "20.00", "20.00", enum.PaymentStatusPaid},
		{"overpaid", "20.00", "25.00", enum.PaymentStatusPaid},
		{"zero total order is paid", "0", "0", enum.PaymentStatusPaid},
		{"overpayment on zero total", "0", "5.00", enum.PaymentStatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := derivePaymentStatus(decimal.RequireFromString(tc.total), decimal.RequireFromString(tc.paid))
			if got != tc.want {
				t.Errorf("derivePaymentStatus(%s, %s) = %q, want %q", tc.total, tc.paid, got, tc.want)
			}
		})
	}
}

func assign(d ItemLineDetail, person, paid string, isPaid bool) ItemLineDetail {
	if person != "" {
		d.Line.PersonName = pgtype.Text{String: person, Valid: true}
	}
	d.Line.PaidAmount = makeNumeric(paid)
	d.Line.IsPaid = isPaid
	return d
}

func TestSplitByPerson_GroupsAndTotals(t *testing.T) {
	detail := &OrderDetail{
		Order: database.Order{TaxEnabled: false},
		Items: []ItemLineDetail{
			assign(itemDetail("8.00", "", 2), "Amira", "16.00", true), // 16.00, settled
			assign(itemDetail("4.00", "", 1), "Basim", "0", false),    // 4.00
			assign(itemDetail("3.00", "", 1), "Amira", "0", false),    // 3.00
		},
	}
	split := SplitByPerson(detail)

	if len(split.Shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(split.Shares))
	}
	// First appearance order: Amira then Basim.
	amira, basim := split.Shares[0], split.Shares[1]
	if amira.PersonName != "Amira" || basim.PersonName != "Basim" {
		t.Fatalf("share order: got %q, %q", amira.PersonName, basim.PersonName)
	}
	if len(amira.Lines) != 2 {
		t.Errorf("Amira lines: got %d, want 2", len(amira.Lines))
	}
	if !amira.Total.Equal(decimal.RequireFromString("19.00")) {
		t.Errorf("Amira total: got %s, want 19.00", amira.Total)
	}
	if !amira.Paid.Equal(decimal.RequireFromString("16.00")) {
		t.Errorf("Amira paid: got %s, want 16.00", amira.Paid)
	}
	if !amira.Owed.Equal(decimal.RequireFromString("3.00")) {
		t.Errorf("Amira owed: got %s, want 3.00", amira.Owed)
	}
	if !basim.Owed.Equal(decimal.RequireFromString("4.00")) {
		t.Errorf("Basim owed: got %s, want 4.00", basim.Owed)
	}
	if !split.OrderTotal.Equal(decimal.RequireFromString("23.00")) {
		t.Errorf("order total: got %s, want 23.00", split.OrderTotal)
	}
	if !split.TotalPaid.Equal(decimal.RequireFromString("16.00")) {
		t.Errorf("total paid: got %s, want 16.00", split.TotalPaid)
	}
	if !split.TotalOwed.Equal(decimal.RequireFromString("7.00")) {
		t.Errorf("total owed: got %s, want 7.00", split.TotalOwed)
	}
}

func TestSplitByPerson_UnassignedBucket(t *testing.T) {
	detail := &OrderDetail{
		Order: database.Order{TaxEnabled: false},
		Items: []ItemLineDetail{
			assign(itemDetail("8.00", "", 1), "Amira", "0", false),
			itemDetail("5.00", "", 1), // nobody assigned
		},
	}
	split := SplitByPerson(detail)

	if len(split.Shares) != 1 {
		t.Fatalf("expected 1 share, got %d", len(split.Shares))
	}
	if len(split.Unassigned) != 1 {
		t.Fatalf("expected 1 unassigned line, got %d", len(split.Unassigned))
	}
	if !split.Unassigned[0].Total.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("unassigned total: got %s, want 5.00", split.Unassigned[0].Total)
	}
	// The unassigned line still counts in the order total.
	if !split.OrderTotal.Equal(decimal.RequireFromString("13.00")) {
		t.Errorf("order total: got %s, want 13.00", split.OrderTotal)
	}
}

func TestSplitByPerson_UnassignedExcludedFromPaidAndOwed(t *testing.T) {
	detail := &OrderDetail{
		Order: database.Order{TaxEnabled: false},
		Items: []ItemLineDetail{
			assign(itemDetail("20.00", "", 1), "Amira", "20.00", true),
			itemDetail("10.00", "", 1), // nobody assigned
		},
	}
	split := SplitByPerson(detail)

	// Amira settled her share; the unassigned line belongs to nobody, so
	// it counts toward the order total but not toward paid or owed.
	if !split.OrderTotal.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("order total: got %s, want 30.00", split.OrderTotal)
	}
	if !split.TotalPaid.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("total paid: got %s, want 20.00", split.TotalPaid)
	}
	if !split.TotalOwed.IsZero() {
		t.Errorf("total owed: got %s, want 0", split.TotalOwed)
	}
}

func TestSplitByPerson_ServiceLinesAfterItems(t *testing.T) {
	svcLine := serviceDetail("12.00", 1)
	svcLine.Line.PersonName = pgtype.Text{String: "Basim", Valid: true}

	detail := &OrderDetail{
		Order:    database.Order{TaxEnabled: false},
		Items:    []ItemLineDetail{assign(itemDetail("8.00", "", 1), "Amira", "0", false)},
		Services: []ServiceLineDetail{svcLine},
	}
	split := SplitByPerson(detail)

	if len(split.Shares) != 2 || split.Shares[0].PersonName != "Amira" || split.Shares[1].PersonName != "Basim" {
		t.Fatalf("expected Amira then Basim, got %+v", split.Shares)
	}
	if split.Shares[1].Lines[0].Kind != enum.LineKindService {
		t.Errorf("kind: got %q, want service", split.Shares[1].Lines[0].Kind)
	}
}

func TestSplitByPerson_OverpaidShareOwesNothing(t *testing.T) {
	detail := &OrderDetail{
		Order: database.Order{TaxEnabled: false},
		Items: []ItemLineDetail{assign(itemDetail("8.00", "", 1), "Amira", "10.00", true)},
	}
	split := SplitByPerson(detail)
	if !split.Shares[0].Owed.IsZero() {
		t.Errorf("owed: got %s, want 0", split.Shares[0].Owed)
	}
}

func TestSplitByPerson_EmptyOrder(t *testing.T) {
	split := SplitByPerson(&OrderDetail{Order: database.Order{}})
	if split.Shares == nil || split.Unassigned == nil {
		t.Error("shares and unassigned must be empty slices, not nil")
	}
	if len(split.Shares) != 0 || len(split.Unassigned) != 0 {
		t.Errorf("expected empty split, got %+v", split)
	}
}
