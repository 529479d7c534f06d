// Package recipe maps catalog items and their selected variation options to
// the ingredient quantities they consume.
package recipe

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sufra-pos/api/internal/database"
)

// Unlimited is returned by MaxAvailable for items with no recipe lines.
// Unconstrained items can be sold without bound; this mirrors how the
// catalog has always treated them and is a named policy, not an accident.
const Unlimited = int64(math.MaxInt64)

// Usage aggregates ingredient demand for one reservation or release call.
type Usage map[uuid.UUID]decimal.Decimal

// Merge folds other into u, summing per ingredient.
func (u Usage) Merge(other Usage) {
	for id, qty := range other {
		u[id] = u[id].Add(qty)
	}
}

// SortedIDs returns the ingredient ids in stable (byte-wise) order, the same
// order the ledger locks rows in.
func (u Usage) SortedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(u))
	for id := range u {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && lessUUID(ids[j], ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}

func lessUUID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ConfigError reports a recipe line whose target is ill-formed: a line must
// reference exactly one of a menu item or a variation option.
type ConfigError struct {
	RecipeLineID uuid.UUID
	BothTargets  bool
}

func (e *ConfigError) Error() string {
	if e.BothTargets {
		return fmt.Sprintf("recipe line %s targets both a menu item and a variation option", e.RecipeLineID)
	}
	return fmt.Sprintf("recipe line %s targets neither a menu item nor a variation option", e.RecipeLineID)
}

func validateLine(l database.RecipeLine) error {
	switch {
	case l.MenuItemID.Valid && l.VariationOptionID.Valid:
		return &ConfigError{RecipeLineID: l.ID, BothTargets: true}
	case !l.MenuItemID.Valid && !l.VariationOptionID.Valid:
		return &ConfigError{RecipeLineID: l.ID}
	}
	return nil
}

// Resolve computes the usage for quantity units of one recipe-line set
// (a menu item's lines, or one variation option's lines).
func Resolve(lines []database.RecipeLine, quantity int32) (Usage, error) {
	usage := make(Usage, len(lines))
	qty := decimal.NewFromInt32(quantity)
	for _, l := range lines {
		if err := validateLine(l); err != nil {
			return nil, err
		}
		required := database.NumericToDecimal(l.QuantityRequired)
		if required.IsZero() {
			continue
		}
		usage[l.IngredientID] = usage[l.IngredientID].Add(required.Mul(qty))
	}
	return usage, nil
}

// Stock is a point-in-time view of ingredient availability keyed by id.
type Stock map[uuid.UUID]decimal.Decimal

// MaxAvailable reports how many units of an item the current stock can make.
// Items with no recipe lines are Unlimited. Lines with a non-positive
// required quantity are skipped; a recipe made only of such lines yields 0,
// not Unlimited.
func MaxAvailable(lines []database.RecipeLine, stock Stock) int64 {
	if len(lines) == 0 {
		return Unlimited
	}

	max := int64(0)
	constrained := false
	for _, l := range lines {
		required := database.NumericToDecimal(l.QuantityRequired)
		if required.Sign() <= 0 {
			continue
		}
		n := stock[l.IngredientID].Div(required).Floor().IntPart()
		if n < 0 {
			n = 0
		}
		if !constrained || n < max {
			max = n
		}
		constrained = true
	}
	if !constrained {
		return 0
	}
	return max
}
