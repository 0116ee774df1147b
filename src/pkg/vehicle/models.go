// Package vehicle keeps the condominium's registered vehicles and the gate's access log in SQLite.
package vehicle

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

func ParseStatus(s string) (status Status, err error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive, "":
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	case StatusSuspended:
		return StatusSuspended, nil
	default:
		return StatusActive, fmt.Errorf("unknown vehicle status '%s'", s)
	}
}

type Outcome string

const (
	OutcomeGranted Outcome = "granted"
	OutcomeDenied  Outcome = "denied"
	OutcomeFailed  Outcome = "failed"
)

// UnknownPlate is recorded when nothing could be read from the image.
const UnknownPlate = "UNKNOWN"

const (
	AlertKindUnauthorized = "unauthorized_vehicle"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

type Vehicle struct {
	ID             string     `json:"id"`
	Plate          string     `json:"plate"`
	Kind           string     `json:"kind,omitempty"` // car, motorcycle, truck...
	Make           string     `json:"make,omitempty"`
	Model          string     `json:"model,omitempty"`
	Color          string     `json:"color,omitempty"`
	Year           int        `json:"year,omitempty"`
	Resident       string     `json:"resident,omitempty"`
	Unit           string     `json:"unit,omitempty"`
	Status         Status     `json:"status"`
	AuthorizedFrom time.Time  `json:"authorized_from"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsAuthorized reports whether the vehicle may enter at now: active, already authorized and not expired.
func (v Vehicle) IsAuthorized(now time.Time) bool {
	if v.Status != StatusActive {
		return false
	}
	if !v.AuthorizedFrom.IsZero() && now.Before(v.AuthorizedFrom) {
		return false
	}
	if v.ExpiresAt != nil && !now.Before(*v.ExpiresAt) {
		return false
	}
	return true
}

type AccessRecord struct {
	ID         string    `json:"id"`
	Plate      string    `json:"plate"`
	VehicleID  string    `json:"vehicle_id,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Alert struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Severity       string    `json:"severity"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	AccessRecordID string    `json:"access_record_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
