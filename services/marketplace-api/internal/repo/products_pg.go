package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/shared/pkg/models"
)

type ProductsPG struct {
	DB *pgxpool.Pool
}

const productColumns = `p.id, p.artisan_id, p.name, p.description, p.price::text, p.photo_url, p.created_at, p.updated_at`

func scanProduct(row pgx.Row, extra ...any) (models.Product, error) {
	var p models.Product
	var price string
	dest := append([]any{&p.ID, &p.ArtisanID, &p.Name, &p.Description, &price, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %s price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}
	return err
}

// List returns every product with its artisan, newest first.
func (r *ProductsPG) List(ctx context.Context) ([]models.ProductView, error) {
	rows, err := r.DB.Query(ctx, `
		select `+productColumns+`, u.name, u.location
		from products p
		join users u on u.id = p.artisan_id
		order by p.created_at desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProductView
	for rows.Next() {
		var v models.ProductView
		p, err := scanProduct(rows, &v.Artisan.Name, &v.Artisan.Location)
		if err != nil {
			return nil, err
		}
		v.Product = p
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *ProductsPG) ListByArtisan(ctx context.Context, artisanID string) ([]models.Product, error) {
	rows, err := r.DB.Query(ctx, `
		select `+productColumns+`
		from products p
		where p.artisan_id = $1
		order by p.created_at desc
	`, artisanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductsPG) Get(ctx context.Context, id string) (models.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `select `+productColumns+` from products p where p.id = $1`, id))
	return p, notFound("product", id, err)
}

func (r *ProductsPG) Create(ctx context.Context, p models.Product) (models.Product, error) {
	created, err := scanProduct(r.DB.QueryRow(ctx, `
		insert into products as p (id, artisan_id, name, description, price)
		values ($1, $2, $3, $4, $5::numeric)
		returning `+productColumns,
		p.ID, p.ArtisanID, p.Name, p.Description, p.Price.String()))
	if err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return created, nil
}

// UpdateOwned rewrites the product only when artisanID owns it. The photo is left alone.
func (r *ProductsPG) UpdateOwned(ctx context.Context, id, artisanID string, in models.ProductInput) (models.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		update products as p
		set name = $3, description = $4, price = $5::numeric, updated_at = now()
		where p.id = $1 and p.artisan_id = $2
		returning `+productColumns,
		id, artisanID, in.Name, in.Description, in.Price.String()))
	return p, notFound("product", id, err)
}

func (r *ProductsPG) DeleteOwned(ctx context.Context, id, artisanID string) error {
	ct, err := r.DB.Exec(ctx, `delete from products where id = $1 and artisan_id = $2`, id, artisanID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// SetPhotoOwned stores url as the product photo and returns the one it replaced.
func (r *ProductsPG) SetPhotoOwned(ctx context.Context, id, artisanID, url string) (*string, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var prev *string
	err = tx.QueryRow(ctx, `
		select photo_url from products where id = $1 and artisan_id = $2 for update
	`, id, artisanID).Scan(&prev)
	if err != nil {
		return nil, notFound("product", id, err)
	}
	if _, err := tx.Exec(ctx, `
		update products set photo_url = $3, updated_at = now() where id = $1 and artisan_id = $2
	`, id, artisanID, url); err != nil {
		return nil, err
	}
	return prev, tx.Commit(ctx)
}
