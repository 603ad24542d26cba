package models

import (
	"fmt"
	"time"
)

// SafetyStatus drives the status banner and the user marker color.
type SafetyStatus string

const (
	StatusSafe     SafetyStatus = "SAFE"
	StatusWatching SafetyStatus = "WATCHING"
	StatusDanger   SafetyStatus = "DANGER"
)

// Location is one geolocation fix. Accuracy is in meters when the source knows it.
type Location struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the coordinate ranges of a fix.
func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", l.Lat)
	}
	if l.Lng < -180 || l.Lng > 180 {
		return fmt.Errorf("longitude %v out of range", l.Lng)
	}
	if l.Accuracy != nil && *l.Accuracy < 0 {
		return fmt.Errorf("accuracy %v is negative", *l.Accuracy)
	}
	return nil
}

func (l Location) String() string {
	return fmt.Sprintf("(%v, %v)", l.Lat, l.Lng)
}
