package models

import "time"

type CreateOrderRequest struct {
	RecipientName      string `json:"recipient_name" binding:"required"`
	RecipientPhone     string `json:"recipient_phone" binding:"required"`
	ShippingAddress    string `json:"shipping_address" binding:"required"`
	ShippingCity       string `json:"shipping_city,omitempty"`
	ShippingState      string `json:"shipping_state,omitempty"`
	ShippingPostalCode string `json:"shipping_postal_code,omitempty"`
	PaymentMethod      string `json:"payment_method"`
	Notes              string `json:"notes,omitempty"`
}

type OrderItem struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId"`
	ProductSlug  string  `json:"productSlug"`
	ProductName  string  `json:"productName"`
	ProductImage string  `json:"productImage"`
	ColorID      string  `json:"colorId"`
	ColorName    string  `json:"colorName"`
	SizeID       string  `json:"sizeId"`
	Size         string  `json:"size"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
}

type Order struct {
	ID                 string      `json:"id"`
	OrderNumber        string      `json:"orderNumber"`
	Status             string      `json:"status"`
	PaymentMethod      string      `json:"paymentMethod"`
	PaymentStatus      string      `json:"paymentStatus"`
	ItemsTotal         float64     `json:"itemsTotal"`
	ShippingFee        float64     `json:"shippingFee"`
	TotalAmount        float64     `json:"totalAmount"`
	RecipientName      string      `json:"recipientName"`
	RecipientPhone     string      `json:"recipientPhone"`
	ShippingAddress    string      `json:"shippingAddress"`
	ShippingCity       string      `json:"shippingCity,omitempty"`
	ShippingState      string      `json:"shippingState,omitempty"`
	ShippingPostalCode string      `json:"shippingPostalCode,omitempty"`
	Notes              string      `json:"notes,omitempty"`
	Items              []OrderItem `json:"items"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// OrderListItem is the condensed shape for the order history page.
type OrderListItem struct {
	ID             string    `json:"id"`
	OrderNumber    string    `json:"orderNumber"`
	Status         string    `json:"status"`
	TotalAmount    float64   `json:"totalAmount"`
	ItemCount      int       `json:"itemCount"`
	FirstItemImage string    `json:"firstItemImage"`
	CreatedAt      time.Time `json:"createdAt"`
}
