package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	ArtisanID   string          `json:"artisan_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	PhotoURL    *string         `json:"photo_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Owner is the minimal identity shown next to a listing.
type Owner struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type ProductView struct {
	Product
	Artisan Owner `json:"artisan"`
}

// ProductInput is the client-editable part of a product. The photo only
// changes through an upload.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
}
