package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/shared/pkg/models"
)

type UsersPG struct {
	DB *pgxpool.Pool
}

const userColumns = `id, name, role, location, latitude, longitude, description, created_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.Location, &u.Latitude, &u.Longitude, &u.Description, &u.CreatedAt)
	return u, err
}

func (r *UsersPG) Create(ctx context.Context, u models.User) error {
	_, err := r.DB.Exec(ctx, `
		insert into users(id, name, role, location, latitude, longitude, description)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Name, string(u.Role), u.Location, u.Latitude, u.Longitude, u.Description)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UsersPG) Get(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `select `+userColumns+` from users where id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return u, err
}

// Update applies the self-service fields; role is never written.
func (r *UsersPG) Update(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `
		update users
		set name = $2, location = $3, description = $4, latitude = $5, longitude = $6
		where id = $1
		returning `+userColumns,
		id, upd.Name, upd.Location, upd.Description, upd.Latitude, upd.Longitude))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return u, err
}

// ArtisansWithCoordinates lists artisans that have both coordinates, with product counts.
func (r *UsersPG) ArtisansWithCoordinates(ctx context.Context) ([]models.ArtisanProfile, error) {
	rows, err := r.DB.Query(ctx, `
		select u.id, u.name, u.role, u.location, u.latitude, u.longitude, u.description, u.created_at,
		       count(p.id)
		from users u
		left join products p on p.artisan_id = u.id
		where u.role = 'artisan' and u.latitude is not null and u.longitude is not null
		group by u.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ArtisanProfile
	for rows.Next() {
		var a models.ArtisanProfile
		if err := rows.Scan(&a.ID, &a.Name, &a.Role, &a.Location, &a.Latitude, &a.Longitude,
			&a.Description, &a.CreatedAt, &a.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
