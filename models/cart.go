package models

import "time"

// CartItem is one line in the cart. Price is the unit price snapshot taken
// by the backend when the item was added.
type CartItem struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	ProductImage string  `json:"productImage"`
	ColorID      string  `json:"colorId"`
	ColorName    string  `json:"colorName"`
	SizeID       string  `json:"sizeId"`
	Size         string  `json:"size"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
}

// Cart is the server-computed cart snapshot. ItemCount and Subtotal come
// from the backend and are never recomputed locally.
type Cart struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Items     []CartItem `json:"items"`
	ItemCount int        `json:"itemCount"`
	Subtotal  float64    `json:"subtotal"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	ColorID   string `json:"colorId" binding:"required"`
	SizeID    string `json:"sizeId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
