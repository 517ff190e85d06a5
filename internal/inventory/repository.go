package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"warehouse-be/internal/db"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/numeric"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Store {
	return &repository{db: conn}
}

func (r *repository) Adjust(
	ctx context.Context,
	key Key,
	delta decimal.Decimal,
	policy MissingPolicy,
) (decimal.Decimal, error) {

	if !db.InTx(ctx) {
		return decimal.Zero, ErrNoTx
	}
	if err := numeric.Quantity.Check(delta); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %s", ErrInvalidQuantity, key, err)
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Adjust"),
		zap.String("key", key.String()),
		zap.String("delta", delta.String()),
	)

	q := db.Executor(ctx, r.db)

	var (
		id       uint
		quantity decimal.Decimal
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, quantity
		FROM inventory
		WHERE material = $1 AND specification = $2
		FOR UPDATE
	`, key.Material, key.Specification).Scan(&id, &quantity)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.adjustMissing(ctx, q, log, key, delta, policy)
	case err != nil:
		log.Error("failed to lock inventory row", zap.Error(err))
		return decimal.Zero, err
	}

	if delta.IsZero() {
		return quantity, nil
	}

	next := quantity.Add(delta)
	if next.IsNegative() {
		log.Warn("adjustment rejected", zap.String("available", quantity.String()))
		return quantity, fmt.Errorf("%w: %s has %s, needs %s",
			ErrInsufficientStock, key, quantity, delta.Neg())
	}
	if err := numeric.Quantity.Check(next); err != nil {
		return quantity, fmt.Errorf("%w: %s: %s", ErrInvalidQuantity, key, err)
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2
	`, next, id); err != nil {
		log.Error("failed to update inventory quantity", zap.Error(err))
		return decimal.Zero, err
	}

	log.Debug("inventory adjusted", zap.String("quantity", next.String()))
	return next, nil
}

func (r *repository) adjustMissing(
	ctx context.Context,
	q db.DBTX,
	log *zap.Logger,
	key Key,
	delta decimal.Decimal,
	policy MissingPolicy,
) (decimal.Decimal, error) {

	switch {
	case delta.IsZero():
		return decimal.Zero, nil
	case delta.IsNegative() && policy == MissingSkip:
		log.Warn("no inventory record to deduct from, skipping")
		return decimal.Zero, nil
	case delta.IsNegative():
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}

	// A concurrent restoration may insert the same key first; add onto it.
	var quantity decimal.Decimal
	err := q.QueryRowContext(ctx, `
		INSERT INTO inventory (material, specification, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (material, specification)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity
	`, key.Material, key.Specification, delta).Scan(&quantity)
	if err != nil {
		log.Error("failed to create inventory record", zap.Error(err))
		return decimal.Zero, err
	}

	log.Info("inventory record created by restoration", zap.String("quantity", quantity.String()))
	return quantity, nil
}

func (r *repository) Read(ctx context.Context, key Key) (decimal.Decimal, error) {
	var quantity decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT quantity
		FROM inventory
		WHERE material = $1 AND specification = $2
	`, key.Material, key.Specification).Scan(&quantity)

	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrRecordNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return quantity, nil
}

func (r *repository) Get(ctx context.Context, key Key) (*Record, error) {
	var rec Record
	err := r.db.QueryRowContext(ctx, `
		SELECT id, material, specification, quantity, density, created_at, updated_at
		FROM inventory
		WHERE material = $1 AND specification = $2
	`, key.Material, key.Specification).Scan(
		&rec.ID,
		&rec.Material,
		&rec.Specification,
		&rec.Quantity,
		&rec.Density,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]*Record, error) {
	query := `
		SELECT id, material, specification, quantity, density, created_at, updated_at
		FROM inventory
		WHERE 1=1
	`
	args := []any{}
	argIndex := 1

	if filter.Material != "" {
		query += fmt.Sprintf(" AND material = $%d", argIndex)
		args = append(args, filter.Material)
		argIndex++
	}
	if filter.Specification != "" {
		query += fmt.Sprintf(" AND specification = $%d", argIndex)
		args = append(args, filter.Specification)
	}
	query += " ORDER BY material, specification"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query inventory", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.Material,
			&rec.Specification,
			&rec.Quantity,
			&rec.Density,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

func (r *repository) Create(ctx context.Context, rec *Record) error {
	err := db.Executor(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO inventory (material, specification, quantity, density)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, rec.Material, rec.Specification, rec.Quantity, rec.Density).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrRecordExists, rec.Key())
	}
	return err
}
