package models

import "time"

// Guide is a community-submitted set of steps for one or more models.
type Guide struct {
	ID               int64     `json:"id"`
	SubmittedByName  string    `json:"submittedByName"`
	SubmittedByEmail *string   `json:"submittedByEmail"`
	Status           Status    `json:"status"`
	ApprovedByUserID *int64    `json:"approvedByUserId"`
	HelpfulCount     int       `json:"helpfulCount"`
	NotHelpfulCount  int       `json:"notHelpfulCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// GuideStep is one numbered instruction of a guide.
type GuideStep struct {
	ID          int64     `json:"id"`
	GuideID     int64     `json:"guideId"`
	StepNumber  int       `json:"stepNumber"`
	Description string    `json:"description"`
	ImageURL    *string   `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GuideSummary is a guide row with the names of the models it targets.
type GuideSummary struct {
	Guide
	ModelNames []string `json:"modelNames"`
}

// GuideDetails is everything a moderator sees when reviewing a guide.
type GuideDetails struct {
	Guide
	ApprovedByName *string        `json:"approvedByName"`
	Steps          []GuideStep    `json:"steps"`
	Models         []VehicleModel `json:"models"`
}

// ModelNames formats the linked models as "Brand Model".
func (d *GuideDetails) ModelNames() []string {
	names := make([]string, 0, len(d.Models))
	for i := range d.Models {
		names = append(names, d.Models[i].DisplayName())
	}
	return names
}
