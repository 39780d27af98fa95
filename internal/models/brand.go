package models

import "time"

// Brand is a vehicle manufacturer in the catalog.
type Brand struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	LogoURL    *string   `json:"logoUrl"`
	Status     Status    `json:"status"`
	GuideCount int       `json:"guideCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
