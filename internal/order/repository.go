package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"warehouse-be/internal/db"
	"warehouse-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository persists order headers and items. Every method runs on the
// transaction carried by ctx when there is one.
type Repository interface {
	NextDailySequence(ctx context.Context, day time.Time) (int, error)
	Insert(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, orderID uint, items []*Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItems(ctx context.Context, orderID uint, ids []uint) error
	UpdateHeader(ctx context.Context, o *Order) error
	UpdateFlags(ctx context.Context, id uint, in FlagsInput) error
	Delete(ctx context.Context, id uint) error

	// GetForUpdate loads an order with its items and locks the header row
	// until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uint) (*Order, error)
	GetByID(ctx context.Context, id uint) (*Order, error)
	List(ctx context.Context, filter Filter) ([]*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) exec(ctx context.Context) db.DBTX {
	return db.Executor(ctx, r.db)
}

// NextDailySequence hands out 0, 1, 2, ... per calendar day. The upsert
// locks the day's row so concurrent creates get distinct values.
func (r *repository) NextDailySequence(ctx context.Context, day time.Time) (int, error) {
	var seq int
	err := r.exec(ctx).QueryRowContext(ctx, `
		INSERT INTO order_sequences (day, last_value)
		VALUES ($1, 0)
		ON CONFLICT (day)
		DO UPDATE SET last_value = order_sequences.last_value + 1
		RETURNING last_value
	`, day.Format("2006-01-02")).Scan(&seq)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to allocate order sequence", zap.Error(err))
		return 0, err
	}
	return seq, nil
}

func (r *repository) Insert(ctx context.Context, o *Order) error {
	err := r.exec(ctx).QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, order_type, customer_id, user_id,
			is_paid, is_completed, remark, total_price, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, FALSE, FALSE, $5, $6, $7, $7)
		RETURNING id
	`,
		o.OrderNumber,
		string(o.Type),
		o.CustomerID,
		o.UserID,
		o.Remark,
		o.TotalPrice,
		o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert order",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err),
		)
		return err
	}
	o.UpdatedAt = o.CreatedAt
	return nil
}

func (r *repository) InsertItems(ctx context.Context, orderID uint, items []*Item) error {
	for _, it := range items {
		err := r.exec(ctx).QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, material, specification, quantity, unit,
				weight, unit_price, subtotal, remark
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`,
			orderID,
			it.Material,
			it.Specification,
			it.Quantity,
			it.Unit,
			it.Weight,
			it.UnitPrice,
			it.Subtotal,
			it.Remark,
		).Scan(&it.ID)
		if err != nil {
			logger.FromCtx(ctx).Error("db: failed to insert order item",
				zap.Uint("order_id", orderID),
				zap.String("key", it.Key().String()),
				zap.Error(err),
			)
			return err
		}
		it.OrderID = orderID
	}
	return nil
}

func (r *repository) UpdateItem(ctx context.Context, it *Item) error {
	res, err := r.exec(ctx).ExecContext(ctx, `
		UPDATE order_items
		SET material = $1,
		    specification = $2,
		    quantity = $3,
		    unit = $4,
		    weight = $5,
		    unit_price = $6,
		    subtotal = $7,
		    remark = $8
		WHERE id = $9 AND order_id = $10
	`,
		it.Material,
		it.Specification,
		it.Quantity,
		it.Unit,
		it.Weight,
		it.UnitPrice,
		it.Subtotal,
		it.Remark,
		it.ID,
		it.OrderID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update order item", zap.Uint("item_id", it.ID), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", ErrUnknownItem, it.ID)
	}
	return nil
}

func (r *repository) DeleteItems(ctx context.Context, orderID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.exec(ctx).ExecContext(ctx,
		"DELETE FROM order_items WHERE order_id = $1 AND id = ANY($2)",
		orderID, pq.Array(toInt64s(ids)),
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to delete order items", zap.Uint("order_id", orderID), zap.Error(err))
	}
	return err
}

func (r *repository) UpdateHeader(ctx context.Context, o *Order) error {
	res, err := r.exec(ctx).ExecContext(ctx, `
		UPDATE orders
		SET customer_id = $1,
		    remark = $2,
		    total_price = $3,
		    updated_at = $4
		WHERE id = $5
	`, o.CustomerID, o.Remark, o.TotalPrice, o.UpdatedAt, o.ID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update order", zap.Uint("order_id", o.ID), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdateFlags writes only the fields set in in. An empty input still
// touches updated_at, which doubles as an existence check.
func (r *repository) UpdateFlags(ctx context.Context, id uint, in FlagsInput) error {
	query := "UPDATE orders SET updated_at = NOW()"
	args := []any{}
	argIndex := 1

	if in.IsPaid != nil {
		query += fmt.Sprintf(", is_paid = $%d", argIndex)
		args = append(args, *in.IsPaid)
		argIndex++
	}
	if in.IsCompleted != nil {
		query += fmt.Sprintf(", is_completed = $%d", argIndex)
		args = append(args, *in.IsCompleted)
		argIndex++
	}
	if in.Remark != nil {
		query += fmt.Sprintf(", remark = $%d", argIndex)
		args = append(args, *in.Remark)
		argIndex++
	}

	query += fmt.Sprintf(" WHERE id = $%d", argIndex)
	args = append(args, id)

	res, err := r.exec(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update order flags", zap.Uint("order_id", id), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete removes the header; order_items go with it through ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id uint) error {
	res, err := r.exec(ctx).ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to delete order", zap.Uint("order_id", id), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

const selectOrder = `
	SELECT
		o.id,
		o.order_number,
		o.order_type,
		o.customer_id,
		o.user_id,
		o.is_paid,
		o.is_completed,
		COALESCE(o.remark, ''),
		o.total_price,
		o.created_at,
		o.updated_at,
		COALESCE(c.name, ''),
		COALESCE(u.username, '')
	FROM orders o
	LEFT JOIN customers c ON c.id = o.customer_id
	LEFT JOIN users u ON u.id = o.user_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var orderType string
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&orderType,
		&o.CustomerID,
		&o.UserID,
		&o.IsPaid,
		&o.IsCompleted,
		&o.Remark,
		&o.TotalPrice,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.CustomerName,
		&o.UserName,
	)
	if err != nil {
		return nil, err
	}
	o.Type = Type(orderType)
	return &o, nil
}

func (r *repository) GetForUpdate(ctx context.Context, id uint) (*Order, error) {
	return r.get(ctx, id, true)
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Order, error) {
	return r.get(ctx, id, false)
}

func (r *repository) get(ctx context.Context, id uint, lock bool) (*Order, error) {
	query := selectOrder + " WHERE o.id = $1"
	if lock {
		query += " FOR UPDATE OF o"
	}

	o, err := scanOrder(r.exec(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to get order", zap.Uint("order_id", id), zap.Error(err))
		return nil, err
	}

	items, err := r.fetchItems(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "ListOrders"))

	query := selectOrder + " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filter.Type != nil {
		query += fmt.Sprintf(" AND o.order_type = $%d", argIndex)
		args = append(args, string(*filter.Type))
		argIndex++
	}
	if filter.IsPaid != nil {
		query += fmt.Sprintf(" AND o.is_paid = $%d", argIndex)
		args = append(args, *filter.IsPaid)
		argIndex++
	}
	if filter.IsCompleted != nil {
		query += fmt.Sprintf(" AND o.is_completed = $%d", argIndex)
		args = append(args, *filter.IsCompleted)
		argIndex++
	}
	if filter.CustomerName != "" {
		query += fmt.Sprintf(" AND c.name ILIKE $%d", argIndex)
		args = append(args, "%"+filter.CustomerName+"%")
		argIndex++
	}

	query += " ORDER BY o.created_at DESC, o.id DESC"

	log.Debug("executing list orders query", zap.String("query", query), zap.Any("args", args))

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	var ids []uint
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	items, err := r.fetchItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}
	return orders, nil
}

func (r *repository) fetchItems(ctx context.Context, orderIDs []uint) (map[uint][]*Item, error) {
	out := make(map[uint][]*Item, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	rows, err := r.exec(ctx).QueryContext(ctx, `
		SELECT
			id, order_id, material, specification, quantity,
			COALESCE(unit, ''), weight, unit_price, subtotal, COALESCE(remark, '')
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(toInt64s(orderIDs)))
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to fetch order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.Material,
			&it.Specification,
			&it.Quantity,
			&it.Unit,
			&it.Weight,
			&it.UnitPrice,
			&it.Subtotal,
			&it.Remark,
		); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], &it)
	}
	return out, rows.Err()
}

func toInt64s(ids []uint) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
