package services

import (
	"context"

	"github.com/Aquilass/tcnr01/clients"
	"github.com/Aquilass/tcnr01/models"
)

// OrderService creates and reads orders. Auth requirements are enforced
// upstream; this gateway just forwards the session's identity.
type OrderService struct {
	api *clients.APIClient
}

func NewOrderService(api *clients.APIClient) *OrderService {
	return &OrderService{api: api}
}

func (s *OrderService) Create(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var out models.Order
	if err := s.api.Post(ctx, "/orders", &clients.RequestOptions{Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *OrderService) List(ctx context.Context) ([]models.OrderListItem, error) {
	var out []models.OrderListItem
	if err := s.api.Get(ctx, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	var out models.Order
	if err := s.api.Get(ctx, "/orders/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
