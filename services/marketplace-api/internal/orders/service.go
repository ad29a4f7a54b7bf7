// Package orders runs the order status workflow between customers and artisans.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/services/marketplace-api/internal/policy"
	"artisanhub/shared/pkg/metrics"
	"artisanhub/shared/pkg/models"
)

type Repo interface {
	Create(ctx context.Context, orderID, productID, customerID string) (models.Order, error)
	GetScoped(ctx context.Context, id, column, actorID string) (models.Order, error)
	Transition(ctx context.Context, id, artisanID string, from, to models.OrderStatus) (models.Order, error)
	ListScoped(ctx context.Context, column, actorID string) ([]models.OrderView, error)
}

type Service struct {
	Repo Repo
	Log  zerolog.Logger
}

var tracer = otel.Tracer("artisanhub/orders")

// Create places a pending order for productID on behalf of a customer.
func (s *Service) Create(ctx context.Context, actor policy.Actor, productID string) (models.Order, error) {
	if err := policy.Can(actor, policy.ActionCreate, policy.Order(actor.ID, "")); err != nil {
		return models.Order{}, err
	}
	if _, err := uuid.Parse(productID); err != nil {
		return models.Order{}, apperr.Invalid("product_id", "must be a uuid")
	}

	ctx, span := tracer.Start(ctx, "orders.Create")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	o, err := s.Repo.Create(ctx, uuid.NewString(), productID, actor.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}
	metrics.OrdersCreatedTotal.Inc()
	s.Log.Info().Str("order_id", o.ID).Str("product_id", productID).Str("artisan_id", o.ArtisanID).Msg("order created")
	return o, nil
}

// Transition moves an order owned by the acting artisan to status to.
func (s *Service) Transition(ctx context.Context, actor policy.Actor, orderID string, to models.OrderStatus) (models.Order, error) {
	if err := policy.RequireRole(actor, models.RoleArtisan); err != nil {
		return models.Order{}, err
	}
	if !to.Valid() {
		return models.Order{}, apperr.Invalid("status", fmt.Sprintf("unknown status %q", to))
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return models.Order{}, apperr.Invalid("id", "must be a uuid")
	}

	ctx, span := tracer.Start(ctx, "orders.Transition")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.to", string(to)))

	o, err := s.transition(ctx, actor, orderID, to)
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidTransition):
		result = "invalid"
	case errors.Is(err, apperr.ErrConflict):
		result = "conflict"
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrForbidden):
		result = "denied"
	default:
		result = "error"
	}
	metrics.OrderTransitionsTotal.WithLabelValues(string(to), result).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		return models.Order{}, err
	}
	s.Log.Info().Str("order_id", o.ID).Str("status", string(o.Status)).Msg("order transitioned")
	return o, nil
}

func (s *Service) transition(ctx context.Context, actor policy.Actor, orderID string, to models.OrderStatus) (models.Order, error) {
	current, err := s.Repo.GetScoped(ctx, orderID, policy.ColumnArtisan, actor.ID)
	if err != nil {
		return models.Order{}, err
	}
	if err := policy.Can(actor, policy.ActionTransition, policy.Order(current.CustomerID, current.ArtisanID)); err != nil {
		return models.Order{}, err
	}
	if err := CanTransition(current.Status, to); err != nil {
		return models.Order{}, err
	}
	return s.Repo.Transition(ctx, orderID, actor.ID, current.Status, to)
}

// List returns the orders the actor takes part in, newest first. Artisans
// also get the statuses each order may move to next.
func (s *Service) List(ctx context.Context, actor policy.Actor) ([]models.OrderView, error) {
	column, err := policy.OrderScope(actor)
	if err != nil {
		return nil, err
	}
	out, err := s.Repo.ListScoped(ctx, column, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if out == nil {
		out = []models.OrderView{}
	}
	if column == policy.ColumnArtisan {
		for i := range out {
			out[i].Actions = Next(out[i].Status)
		}
	}
	return out, nil
}
