package models

import "time"

// MenuItem is a catalog entry. The core only reads it; ownership stays with
// the catalog service.
type MenuItem struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Price       float64   `json:"price" db:"price"`
	CategoryID  string    `json:"category_id,omitempty" db:"category_id"`
	Available   bool      `json:"available" db:"available"`
	ImageURL    *string   `json:"image_url,omitempty" db:"image_url"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
