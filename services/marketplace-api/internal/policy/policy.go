// Package policy decides which actor may perform which action on which resource.
package policy

import (
	"fmt"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/shared/pkg/models"
)

type Action string

const (
	ActionRead       Action = "read"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionTransition Action = "transition"
)

type Kind string

const (
	KindProduct Kind = "product"
	KindOrder   Kind = "order"
	KindProfile Kind = "profile"
)

// Order scope columns understood by the order repository.
const (
	ColumnCustomer = "customer_id"
	ColumnArtisan  = "artisan_id"
)

// Actor is the signed-in user a request acts for. The zero value is anonymous.
type Actor struct {
	ID   string
	Role models.Role
}

func (a Actor) Anonymous() bool { return a.ID == "" }

// Resource identifies the target of an action and the users that own it.
// Owner ids are empty when the resource does not exist yet.
type Resource struct {
	Kind       Kind
	OwnerID    string
	CustomerID string
}

func Product(artisanID string) Resource {
	return Resource{Kind: KindProduct, OwnerID: artisanID}
}

func Order(customerID, artisanID string) Resource {
	return Resource{Kind: KindOrder, OwnerID: artisanID, CustomerID: customerID}
}

func Profile(userID string) Resource {
	return Resource{Kind: KindProfile, OwnerID: userID}
}

// Can returns nil when actor may perform action on res, ErrForbidden otherwise.
func Can(actor Actor, action Action, res Resource) error {
	if allowed(actor, action, res) {
		return nil
	}
	return fmt.Errorf("%s %s: %w", action, res.Kind, apperr.ErrForbidden)
}

func allowed(actor Actor, action Action, res Resource) bool {
	switch res.Kind {
	case KindProduct:
		switch action {
		case ActionRead:
			return true
		case ActionCreate:
			return isArtisan(actor)
		case ActionUpdate, ActionDelete:
			return isArtisan(actor) && res.OwnerID != "" && res.OwnerID == actor.ID
		}
	case KindOrder:
		if actor.Anonymous() {
			return false
		}
		switch action {
		case ActionCreate:
			return actor.Role == models.RoleCustomer
		case ActionRead:
			return actor.ID == res.CustomerID || actor.ID == res.OwnerID
		case ActionTransition:
			return isArtisan(actor) && actor.ID == res.OwnerID
		}
	case KindProfile:
		switch action {
		case ActionRead:
			return true
		case ActionUpdate:
			return !actor.Anonymous() && actor.ID == res.OwnerID
		}
	}
	return false
}

func isArtisan(a Actor) bool {
	return !a.Anonymous() && a.Role == models.RoleArtisan
}

// RequireRole rejects actors that are anonymous or hold a different role.
func RequireRole(actor Actor, role models.Role) error {
	if actor.Anonymous() || actor.Role != role {
		return fmt.Errorf("requires %s: %w", role, apperr.ErrForbidden)
	}
	return nil
}

// OrderScope returns the orders column that filters rows visible to actor.
func OrderScope(actor Actor) (string, error) {
	if actor.Anonymous() {
		return "", fmt.Errorf("order scope: %w", apperr.ErrForbidden)
	}
	switch actor.Role {
	case models.RoleCustomer:
		return ColumnCustomer, nil
	case models.RoleArtisan:
		return ColumnArtisan, nil
	}
	return "", fmt.Errorf("order scope for role %q: %w", actor.Role, apperr.ErrForbidden)
}
