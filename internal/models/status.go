package models

// Status is the approval state of a brand, model or guide.
type Status string

// Status values. Brands and models only use PENDING and APPROVED.
const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusOffline  Status = "OFFLINE"
)

// ValidGuideStatus reports whether s may be stored on a guide.
func ValidGuideStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusOffline:
		return true
	}
	return false
}

// ValidCatalogStatus reports whether s may be stored on a brand or model.
func ValidCatalogStatus(s Status) bool {
	return s == StatusPending || s == StatusApproved
}
