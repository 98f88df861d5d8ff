package entity

import "time"

// Product is a sellable item. Slug is unique and derived from the name when
// not provided explicitly; Barcode is optional but unique when set. Prices are
// stored in the smallest currency unit.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Barcode     string `json:"barcode,omitempty"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"min_stock"`
	Price       int64  `json:"price"`
	CostPrice   int64  `json:"cost_price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	CategoryID  int    `json:"category_id"`

	// CategoryName is populated on reads that join the category, for list
	// responses; it is not persisted on the product row.
	CategoryName string `json:"category_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
