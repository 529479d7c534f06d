// Package inventory owns ingredient stock mutation. Every reserve or release
// runs inside a coordinator-scoped transaction; stock is never
// read-modify-written outside one.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/sufra-pos/api/internal/database"
	"github.com/sufra-pos/api/internal/recipe"
)

// ErrContentionTimeout is returned when a reservation could not acquire its
// ingredient row locks within the configured bound. Unlike insufficient
// stock, this failure is retryable.
var ErrContentionTimeout = errors.New("timed out waiting for ingredient locks")

// InsufficientStockError reports the first shortage found during the
// precommit validation pass. No stock has been mutated when it is returned.
type InsufficientStockError struct {
	IngredientID uuid.UUID
	Name         string
	Required     decimal.Decimal
	Available    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: required %s, available %s",
		e.Name, e.Required, e.Available)
}

// Shortage reports how far short the stock falls.
func (e *InsufficientStockError) Shortage() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

// LowStockAlert is emitted after a successful reserve for every ingredient
// at or below its reorder level. It is a signal, never a failure.
type LowStockAlert struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Name         string    `json:"name"`
	Quantity     string    `json:"quantity"`
}

// Store is the slice of the query layer the ledger needs. Satisfied by
// *database.Queries bound to the coordinator's transaction.
type Store interface {
	SetLockTimeout(ctx context.Context, d time.Duration) error
	LockIngredients(ctx context.Context, ids []uuid.UUID) ([]database.Ingredient, error)
	AdjustIngredientStock(ctx context.Context, arg database.AdjustIngredientStockParams) (database.Ingredient, error)
}

// Ledger performs atomic, all-or-nothing stock reservation and release.
type Ledger struct {
	lockTimeout time.Duration
}

func NewLedger(lockTimeout time.Duration) *Ledger {
	return &Ledger{lockTimeout: lockTimeout}
}

// Reserve validates the entire usage map against current stock and, only if
// every ingredient suffices, decrements them all. Rows are locked in stable
// id order for the duration of the transaction, so two concurrent orders
// competing for the same ingredients can never both pass validation when
// their combined demand exceeds stock.
func (l *Ledger) Reserve(ctx context.Context, store Store, usage recipe.Usage) ([]LowStockAlert, error) {
	if len(usage) == 0 {
		return nil, nil
	}

	if err := store.SetLockTimeout(ctx, l.lockTimeout); err != nil {
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}

	locked, err := store.LockIngredients(ctx, usage.SortedIDs())
	if err != nil {
		if isLockNotAvailable(err) {
			return nil, ErrContentionTimeout
		}
		return nil, fmt.Errorf("lock ingredients: %w", err)
	}
	if len(locked) != len(usage) {
		return nil, fmt.Errorf("locked %d of %d ingredients: stock row missing", len(locked), len(usage))
	}

	// Precommit pass: check the whole map before touching any row.
	for _, ing := range locked {
		required := usage[ing.ID]
		available := database.NumericToDecimal(ing.QuantityInStock)
		if available.LessThan(required) {
			return nil, &InsufficientStockError{
				IngredientID: ing.ID,
				Name:         ing.Name,
				Required:     required,
				Available:    available,
			}
		}
	}

	var alerts []LowStockAlert
	for _, ing := range locked {
		updated, err := store.AdjustIngredientStock(ctx, database.AdjustIngredientStockParams{
			ID:    ing.ID,
			Delta: database.DecimalToNumeric(usage[ing.ID].Neg()),
		})
		if err != nil {
			return nil, fmt.Errorf("decrement %s: %w", ing.Name, err)
		}
		newStock := database.NumericToDecimal(updated.QuantityInStock)
		if newStock.LessThanOrEqual(database.NumericToDecimal(updated.ReorderLevel)) {
			alerts = append(alerts, LowStockAlert{
				IngredientID: updated.ID,
				Name:         updated.Name,
				Quantity:     newStock.String(),
			})
		}
	}
	return alerts, nil
}

// Release increments every ingredient in usage. It mirrors a prior
// successful reserve, so there is nothing to validate and it cannot fail
// short of a storage error.
func (l *Ledger) Release(ctx context.Context, store Store, usage recipe.Usage) error {
	for _, id := range usage.SortedIDs() {
		if _, err := store.AdjustIngredientStock(ctx, database.AdjustIngredientStockParams{
			ID:    id,
			Delta: database.DecimalToNumeric(usage[id]),
		}); err != nil {
			return fmt.Errorf("increment %s: %w", id, err)
		}
	}
	return nil
}

// isLockNotAvailable matches Postgres 55P03, raised when lock_timeout
// expires while waiting on a row lock.
func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
