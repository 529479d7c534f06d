package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const ingredientColumns = `id, name, unit, quantity_in_stock, reorder_level, created_at, updated_at`

func scanIngredient(row pgx.Row) (Ingredient, error) {
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Unit, &i.QuantityInStock, &i.ReorderLevel, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

// SetLockTimeout bounds lock waits for the rest of the current transaction.
// Postgres does not allow SET LOCAL with a bind parameter, so the duration
// is formatted into the statement.
func (q *Queries) SetLockTimeout(ctx context.Context, d time.Duration) error {
	_, err := q.db.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds()))
	return err
}

// LockIngredients takes exclusive row locks on the given ingredients for the
// duration of the current transaction. Rows are always locked in id order so
// two transactions touching overlapping ingredient sets cannot deadlock.
func (q *Queries) LockIngredients(ctx context.Context, ids []uuid.UUID) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+ingredientColumns+`
		FROM ingredients
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

type AdjustIngredientStockParams struct {
	ID    uuid.UUID
	Delta pgtype.Numeric
}

// AdjustIngredientStock applies a signed stock delta and returns the updated
// row. Callers hold the row lock via LockIngredients when the delta is a
// reservation.
func (q *Queries) AdjustIngredientStock(ctx context.Context, arg AdjustIngredientStockParams) (Ingredient, error) {
	return scanIngredient(q.db.QueryRow(ctx, `
		UPDATE ingredients
		SET quantity_in_stock = quantity_in_stock + $2, updated_at = now()
		WHERE id = $1
		RETURNING `+ingredientColumns+`
	`, arg.ID, arg.Delta))
}

func (q *Queries) GetIngredient(ctx context.Context, id uuid.UUID) (Ingredient, error) {
	return scanIngredient(q.db.QueryRow(ctx, `
		SELECT `+ingredientColumns+` FROM ingredients WHERE id = $1
	`, id))
}

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+ingredientColumns+` FROM ingredients ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// ListIngredientsByIDs reads the given ingredients without locking them.
// Used for availability previews, never for reservation.
func (q *Queries) ListIngredientsByIDs(ctx context.Context, ids []uuid.UUID) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+ingredientColumns+` FROM ingredients WHERE id = ANY($1) ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

type CreateIngredientParams struct {
	Name            string
	Unit            string
	QuantityInStock pgtype.Numeric
	ReorderLevel    pgtype.Numeric
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	return scanIngredient(q.db.QueryRow(ctx, `
		INSERT INTO ingredients (name, unit, quantity_in_stock, reorder_level)
		VALUES ($1, $2, $3, $4)
		RETURNING `+ingredientColumns+`
	`, arg.Name, arg.Unit, arg.QuantityInStock, arg.ReorderLevel))
}
