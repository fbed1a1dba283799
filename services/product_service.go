package services

import (
	"context"
	"strconv"

	"github.com/Aquilass/tcnr01/clients"
	"github.com/Aquilass/tcnr01/models"
)

// ProductListParams filters the product listing. Zero values are omitted
// from the query string.
type ProductListParams struct {
	Category string
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// ProductService is a stateless gateway to the public product catalog.
type ProductService struct {
	api *clients.APIClient
}

func NewProductService(api *clients.APIClient) *ProductService {
	return &ProductService{api: api}
}

func (s *ProductService) List(ctx context.Context, params ProductListParams) (*models.PaginatedProducts, error) {
	query := map[string]string{
		"category": params.Category,
		"search":   params.Search,
		"sort":     params.Sort,
	}
	if params.Page > 0 {
		query["page"] = strconv.Itoa(params.Page)
	}
	if params.PageSize > 0 {
		query["page_size"] = strconv.Itoa(params.PageSize)
	}

	var out models.PaginatedProducts
	if err := s.api.Get(ctx, "/products", &clients.RequestOptions{Params: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var out models.Product
	if err := s.api.Get(ctx, "/products/"+slug, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
