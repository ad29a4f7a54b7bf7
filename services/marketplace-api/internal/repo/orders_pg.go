package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/services/marketplace-api/internal/policy"
	"artisanhub/shared/pkg/models"
)

type OrdersPG struct {
	DB     *pgxpool.Pool
	Outbox *OutboxPG
}

const orderColumns = `o.id, o.product_id, o.customer_id, o.artisan_id, o.status, o.created_at, o.updated_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.ProductID, &o.CustomerID, &o.ArtisanID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scopeColumn(column string) (string, error) {
	switch column {
	case policy.ColumnCustomer, policy.ColumnArtisan:
		return "o." + column, nil
	}
	return "", fmt.Errorf("order scope column %q: %w", column, apperr.ErrForbidden)
}

// Create inserts a pending order whose artisan is copied from the product row
// and enqueues orders.created in the same transaction.
func (r *OrdersPG) Create(ctx context.Context, orderID, productID, customerID string) (models.Order, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return models.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `
		insert into orders as o (id, product_id, customer_id, artisan_id, status)
		select $1::uuid, p.id, $3::uuid, p.artisan_id, $4::text
		from products p
		where p.id = $2::uuid
		returning `+orderColumns,
		orderID, productID, customerID, string(models.OrderStatusPending)))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Order{}, fmt.Errorf("product %s: %w", productID, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("insert order: %w", err)
	}

	if err := r.Outbox.Enqueue(ctx, tx, models.NewOrderEvent(o, "")); err != nil {
		return models.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("commit order: %w", err)
	}
	return o, nil
}

// GetScoped loads an order only if actorID matches the given scope column.
func (r *OrdersPG) GetScoped(ctx context.Context, id, column, actorID string) (models.Order, error) {
	col, err := scopeColumn(column)
	if err != nil {
		return models.Order{}, err
	}
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`select `+orderColumns+` from orders o where o.id = $1 and `+col+` = $2`, id, actorID))
	return o, notFound("order", id, err)
}

// Transition moves the order from one status to another if it still holds
// from. Zero matched rows leaves it unchanged and reports ErrConflict.
func (r *OrdersPG) Transition(ctx context.Context, id, artisanID string, from, to models.OrderStatus) (models.Order, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return models.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, `
		update orders as o
		set status = $4, updated_at = now()
		where o.id = $1 and o.artisan_id = $2 and o.status = $3
		returning `+orderColumns,
		id, artisanID, string(from), string(to)))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Order{}, fmt.Errorf("order %s no longer %s: %w", id, from, apperr.ErrConflict)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("update order: %w", err)
	}

	if err := r.Outbox.Enqueue(ctx, tx, models.NewOrderEvent(o, from)); err != nil {
		return models.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("commit transition: %w", err)
	}
	return o, nil
}

// ListScoped returns the orders visible through column, joined with product
// and both parties, newest first.
func (r *OrdersPG) ListScoped(ctx context.Context, column, actorID string) ([]models.OrderView, error) {
	col, err := scopeColumn(column)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.Query(ctx, `
		select `+orderColumns+`,
		       p.name, p.description, p.price::text, p.photo_url,
		       cu.name, cu.location, au.name, au.location
		from orders o
		join products p on p.id = o.product_id
		join users cu on cu.id = o.customer_id
		join users au on au.id = o.artisan_id
		where `+col+` = $1
		order by o.created_at desc
	`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OrderView
	for rows.Next() {
		var v models.OrderView
		var price string
		if err := rows.Scan(
			&v.ID, &v.ProductID, &v.CustomerID, &v.ArtisanID, &v.Status, &v.CreatedAt, &v.UpdatedAt,
			&v.Product.Name, &v.Product.Description, &price, &v.Product.PhotoURL,
			&v.Customer.Name, &v.Customer.Location, &v.Artisan.Name, &v.Artisan.Location,
		); err != nil {
			return nil, err
		}
		if v.Product.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("order %s price %q: %w", v.ID, price, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
