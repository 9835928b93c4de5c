package backend

import (
	"context"
	"net/http"

	"storefront-admin/internal/models"
)

// ListOrders returns every order in the order the backend sent them.
func (c *Client) ListOrders(ctx context.Context, token string) ([]models.Order, error) {
	if token == "" {
		return nil, c.refuse(OpListOrders)
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, pathOrderList, struct{}{})
	if err != nil {
		return nil, err
	}
	authorize(req, token)

	env, err := c.do(OpListOrders, req)
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	if err := decodeList(OpListOrders, &orders, env.Orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus returns the backend's confirmation message.
func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID string, status models.OrderStatus) (string, error) {
	if token == "" {
		return "", c.refuse(OpUpdateOrderStatus)
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, pathOrderStatus, models.UpdateStatusRequest{
		OrderID: orderID,
		Status:  status,
	})
	if err != nil {
		return "", err
	}
	authorize(req, token)

	env, err := c.do(OpUpdateOrderStatus, req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
