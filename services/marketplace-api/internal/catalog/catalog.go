// Package catalog lists products and lets artisans manage their own.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/services/marketplace-api/internal/policy"
	"artisanhub/shared/pkg/models"
)

var ErrPhotosDisabled = errors.New("photo storage not configured")

type Repo interface {
	List(ctx context.Context) ([]models.ProductView, error)
	ListByArtisan(ctx context.Context, artisanID string) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	Create(ctx context.Context, p models.Product) (models.Product, error)
	UpdateOwned(ctx context.Context, id, artisanID string, in models.ProductInput) (models.Product, error)
	DeleteOwned(ctx context.Context, id, artisanID string) error
	SetPhotoOwned(ctx context.Context, id, artisanID, url string) (*string, error)
}

type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

type Service struct {
	Repo Repo
	// Photos is nil when object storage is not configured.
	Photos        PhotoStore
	MaxPhotoBytes int64
	Log           zerolog.Logger
}

// List returns all products with their artisan, newest first, narrowed by term.
func (s *Service) List(ctx context.Context, term string) ([]models.ProductView, error) {
	all, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return Filter(all, term), nil
}

// Filter keeps products whose name or description contains term, ignoring case.
// A blank term keeps everything.
func Filter(products []models.ProductView, term string) []models.ProductView {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.ProductView, 0, len(products))
	for _, p := range products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) ListMine(ctx context.Context, actor policy.Actor) ([]models.Product, error) {
	if err := policy.RequireRole(actor, models.RoleArtisan); err != nil {
		return nil, err
	}
	out, err := s.Repo.ListByArtisan(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list own products: %w", err)
	}
	if out == nil {
		out = []models.Product{}
	}
	return out, nil
}

// maxPrice is the largest value the numeric(12,2) price column holds.
var maxPrice = decimal.RequireFromString("9999999999.99")

// Validate trims text fields and rejects a blank name or a price outside
// the stored range.
func Validate(in models.ProductInput) (models.ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, apperr.Invalid("name", "is required")
	}
	if in.Price.IsNegative() {
		return in, apperr.Invalid("price", "must not be negative")
	}
	if in.Price.GreaterThan(maxPrice) {
		return in, apperr.Invalid("price", "must be at most "+maxPrice.String())
	}
	if !in.Price.Equal(in.Price.Round(2)) {
		return in, apperr.Invalid("price", "at most two decimal places")
	}
	return in, nil
}

func (s *Service) Create(ctx context.Context, actor policy.Actor, in models.ProductInput) (models.Product, error) {
	if err := policy.Can(actor, policy.ActionCreate, policy.Product("")); err != nil {
		return models.Product{}, err
	}
	in, err := Validate(in)
	if err != nil {
		return models.Product{}, err
	}
	p, err := s.Repo.Create(ctx, models.Product{
		ID:          uuid.NewString(),
		ArtisanID:   actor.ID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor policy.Actor, id string, in models.ProductInput) (models.Product, error) {
	if _, err := s.owned(ctx, actor, policy.ActionUpdate, id); err != nil {
		return models.Product{}, err
	}
	in, err := Validate(in)
	if err != nil {
		return models.Product{}, err
	}
	return s.Repo.UpdateOwned(ctx, id, actor.ID, in)
}

func (s *Service) Delete(ctx context.Context, actor policy.Actor, id string) error {
	p, err := s.owned(ctx, actor, policy.ActionDelete, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteOwned(ctx, id, actor.ID); err != nil {
		return err
	}
	if p.PhotoURL != nil {
		s.dropPhoto(ctx, *p.PhotoURL)
	}
	return nil
}

// owned loads product id and checks that actor may perform action on it.
func (s *Service) owned(ctx context.Context, actor policy.Actor, action policy.Action, id string) (models.Product, error) {
	if err := policy.RequireRole(actor, models.RoleArtisan); err != nil {
		return models.Product{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.Product{}, apperr.Invalid("id", "must be a uuid")
	}
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if err := policy.Can(actor, action, policy.Product(p.ArtisanID)); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// Upload is an image sent for a product photo.
type Upload struct {
	ContentType string
	Body        io.Reader
}

var photoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// AttachPhoto stores the image and points the product at it, removing the
// previous photo on success.
func (s *Service) AttachPhoto(ctx context.Context, actor policy.Actor, id string, up Upload) (models.Product, error) {
	if s.Photos == nil {
		return models.Product{}, ErrPhotosDisabled
	}
	if _, err := s.owned(ctx, actor, policy.ActionUpdate, id); err != nil {
		return models.Product{}, err
	}
	ext, ok := photoTypes[strings.ToLower(strings.TrimSpace(up.ContentType))]
	if !ok {
		return models.Product{}, apperr.Invalid("photo", "must be jpeg, png, webp or gif")
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, s.MaxPhotoBytes+1))
	if err != nil {
		return models.Product{}, fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return models.Product{}, apperr.Invalid("photo", "is empty")
	}
	if int64(len(data)) > s.MaxPhotoBytes {
		return models.Product{}, apperr.Invalid("photo", fmt.Sprintf("exceeds %d bytes", s.MaxPhotoBytes))
	}

	key := "products/" + id + "/" + uuid.NewString() + ext
	url, err := s.Photos.Put(ctx, key, up.ContentType, data)
	if err != nil {
		return models.Product{}, fmt.Errorf("upload photo: %w", err)
	}
	prev, err := s.Repo.SetPhotoOwned(ctx, id, actor.ID, url)
	if err != nil {
		s.dropPhoto(ctx, url)
		return models.Product{}, err
	}
	if prev != nil && *prev != url {
		s.dropPhoto(ctx, *prev)
	}
	return s.Repo.Get(ctx, id)
}

func (s *Service) dropPhoto(ctx context.Context, url string) {
	if s.Photos == nil {
		return
	}
	if err := s.Photos.Delete(ctx, url); err != nil {
		s.Log.Warn().Err(err).Str("url", url).Msg("photo delete failed")
	}
}

// ParsePrice reads a decimal price as sent by clients.
func ParsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, apperr.Invalid("price", "must be a number")
	}
	return d, nil
}
