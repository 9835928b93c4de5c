package services

import (
	"context"
	"fmt"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/models"
	"storefront-admin/internal/session"
	"storefront-admin/internal/validation"

	"github.com/rs/zerolog"
)

type OrderService struct {
	api    *backend.Client
	logger zerolog.Logger
}

func NewOrderService(api *backend.Client, logger zerolog.Logger) *OrderService {
	return &OrderService{
		api:    api,
		logger: logger,
	}
}

// List returns all orders, most recent first: the backend's order reversed.
func (s *OrderService) List(ctx context.Context, store *session.Store) ([]models.Order, error) {
	orders, err := s.api.ListOrders(ctx, store.Token())
	if err != nil {
		s.logger.Error().Err(err).Msg("Fetch orders failed")
		return []models.Order{}, expireOnUnauthorized(ctx, store, err, s.logger)
	}
	return ReverseOrders(orders), nil
}

// UpdateStatus changes one order's status and then refetches every order.
// A failed refetch after a successful update is reported as *RefetchError.
func (s *OrderService) UpdateStatus(ctx context.Context, store *session.Store, orderID string, status models.OrderStatus) ([]models.Order, error) {
	if !status.Valid() {
		return nil, validation.FieldErrors{"status": fmt.Sprintf("Unknown order status %q.", status)}
	}

	msg, err := s.api.UpdateOrderStatus(ctx, store.Token(), orderID, status)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Str("status", string(status)).Msg("Update order status failed")
		return nil, expireOnUnauthorized(ctx, store, err, s.logger)
	}
	s.logger.Info().Str("order_id", orderID).Str("status", string(status)).Msg("Order status updated")

	orders, err := s.List(ctx, store)
	if err != nil {
		return nil, &RefetchError{Message: msg, Err: err}
	}
	return orders, nil
}

// ReverseOrders returns a reversed copy of orders.
func ReverseOrders(orders []models.Order) []models.Order {
	out := make([]models.Order, len(orders))
	for i, o := range orders {
		out[len(orders)-1-i] = o
	}
	return out
}
