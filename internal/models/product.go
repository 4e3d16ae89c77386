package models

import "time"

type Product struct {
	ID            int       `json:"id"`
	SellerID      int       `json:"seller_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	ProductImage  string    `json:"product_image"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateProductRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	ProductImage  string  `json:"product_image"`
	Price         float64 `json:"price" binding:"required,gte=0"`
	StockQuantity int     `json:"stock_quantity" binding:"gte=0"`
}

type UpdateProductRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	ProductImage *string  `json:"product_image"`
	Price        *float64 `json:"price"`
}

// ProductPage is the paginated catalog listing response.
type ProductPage struct {
	Products      []Product `json:"products"`
	CurrentPage   int       `json:"current_page"`
	TotalPages    int       `json:"total_pages"`
	TotalProducts int       `json:"total_products"`
}
