package models

import "time"

type WishlistItem struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	ProductName  string    `json:"productName"`
	ProductImage string    `json:"productImage"`
	ProductSlug  string    `json:"productSlug"`
	Price        float64   `json:"price"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Wishlist only exists for authenticated users.
type Wishlist struct {
	Items []WishlistItem `json:"items"`
	Count int            `json:"count"`
}

type AddWishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}
