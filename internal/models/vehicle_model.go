package models

import "time"

// VehicleModel is a vehicle model belonging to a brand.
type VehicleModel struct {
	ID               int64     `json:"id"`
	BrandID          int64     `json:"brandId"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	YearRange        *string   `json:"yearRange"`
	ReferenceModelID *int64    `json:"referenceModelId"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	// Populated by joined reads
	BrandName   string `json:"brandName,omitempty"`
	BrandSlug   string `json:"brandSlug,omitempty"`
	BrandStatus Status `json:"brandStatus,omitempty"`
	GuideCount  int    `json:"guideCount"`
}

// DisplayName returns "Brand Model", or just the model name when the brand
// was not loaded.
func (m *VehicleModel) DisplayName() string {
	if m.BrandName == "" {
		return m.Name
	}
	return m.BrandName + " " + m.Name
}
