package inventory

import "time"

// Dimensions of a door model, in centimeters.
type Dimensions struct {
	Width  float64 `dynamodbav:"width" json:"width"`
	Height float64 `dynamodbav:"height" json:"height"`
	Depth  float64 `dynamodbav:"depth" json:"depth"`
}

// Item is a door model in the showroom inventory, stored in the inventory
// table keyed by item_id. Stock is only ever mutated through conditional
// updates so it cannot go negative.
type Item struct {
	ItemID      string     `dynamodbav:"item_id" json:"id"` // PK
	Name        string     `dynamodbav:"name" json:"name"`
	SKU         string     `dynamodbav:"sku" json:"sku"`
	Style       string     `dynamodbav:"style,omitempty" json:"style,omitempty"`
	Material    string     `dynamodbav:"material,omitempty" json:"material,omitempty"`
	Dimensions  Dimensions `dynamodbav:"dimensions" json:"dimensions"`
	Weight      float64    `dynamodbav:"weight,omitempty" json:"weight,omitempty"` // kg
	Stock       int        `dynamodbav:"stock" json:"stock"`
	Price       float64    `dynamodbav:"price" json:"price"`
	LeadTime    string     `dynamodbav:"lead_time,omitempty" json:"leadTime,omitempty"`
	Description string     `dynamodbav:"description,omitempty" json:"description,omitempty"`
	ImageURL    string     `dynamodbav:"image_url,omitempty" json:"imageUrl,omitempty"`
	CreatedAt   time.Time  `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `dynamodbav:"updated_at" json:"updatedAt"`
}
