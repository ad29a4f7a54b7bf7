package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"artisanhub/services/marketplace-api/internal/catalog"
	"artisanhub/shared/pkg/models"
)

type seedFile struct {
	Users []seedUser `toml:"users"`
}

type seedUser struct {
	Email       string        `toml:"email"`
	Password    string        `toml:"password"`
	Name        string        `toml:"name"`
	Role        string        `toml:"role"`
	Location    string        `toml:"location"`
	Latitude    *float64      `toml:"latitude"`
	Longitude   *float64      `toml:"longitude"`
	Description *string       `toml:"description"`
	Products    []seedProduct `toml:"products"`
}

type seedProduct struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Price       string `toml:"price"`

	price decimal.Decimal
}

// loadSeedFile decodes path and checks every entry before anything is written.
func loadSeedFile(path string) (seedFile, error) {
	var raw seedFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return seedFile{}, fmt.Errorf("load seed file: %w", err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return seedFile{}, fmt.Errorf("load seed file: unknown key %s", undec[0])
	}

	seen := make(map[string]bool, len(raw.Users))
	for i := range raw.Users {
		u := &raw.Users[i]
		u.Email = strings.TrimSpace(u.Email)
		if u.Email == "" {
			return seedFile{}, fmt.Errorf("users[%d]: email is required", i)
		}
		key := strings.ToLower(u.Email)
		if seen[key] {
			return seedFile{}, fmt.Errorf("users[%d]: duplicate email %s", i, u.Email)
		}
		seen[key] = true
		if u.Role == "" {
			u.Role = string(models.RoleCustomer)
		}
		if len(u.Products) > 0 && u.Role != string(models.RoleArtisan) {
			return seedFile{}, fmt.Errorf("users[%d]: only artisans list products", i)
		}
		for j := range u.Products {
			p := &u.Products[j]
			price, err := catalog.ParsePrice(p.Price)
			if err != nil {
				return seedFile{}, fmt.Errorf("users[%d].products[%d]: %w", i, j, err)
			}
			p.price = price
		}
	}
	return raw, nil
}
