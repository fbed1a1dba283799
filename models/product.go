package models

import "time"

type ProductImage struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	IsMain bool   `json:"isMain"`
}

type ProductColor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	ImageURL string `json:"imageUrl"`
}

type ProductSize struct {
	ID    string `json:"id"`
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

type Product struct {
	ID            string         `json:"id"`
	Slug          string         `json:"slug"`
	Name          string         `json:"name"`
	Subtitle      string         `json:"subtitle"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	OriginalPrice *float64       `json:"originalPrice,omitempty"`
	Category      string         `json:"category"`
	Images        []ProductImage `json:"images"`
	Colors        []ProductColor `json:"colors"`
	Sizes         []ProductSize  `json:"sizes"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// ProductListItem is the flattened card shape used by listing pages.
type ProductListItem struct {
	ID            string   `json:"id"`
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	Subtitle      string   `json:"subtitle"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Category      string   `json:"category"`
	ImageURL      string   `json:"imageUrl"`
	ColorCount    int      `json:"colorCount"`
}

// PaginatedProducts mirrors the backend's paginated listing envelope.
type PaginatedProducts struct {
	Data       []ProductListItem `json:"data"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}
