package models

import "time"

type ReportType string

const (
	ReportIncident ReportType = "INCIDENT"
	ReportSafeZone ReportType = "SAFE_ZONE"
)

func (t ReportType) Valid() bool {
	return t == ReportIncident || t == ReportSafeZone
}

type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// CommunityReport is immutable once created.
type CommunityReport struct {
	ID               string     `json:"id"`
	Type             ReportType `json:"type"`
	Lat              float64    `json:"lat"`
	Lng              float64    `json:"lng"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Timestamp        time.Time  `json:"timestamp"`
	Urgency          Urgency    `json:"urgency,omitempty"`
	SuggestedActions []string   `json:"suggestedActions,omitempty"`
}

// IncidentSummary is the structured output of the incident summarizer.
type IncidentSummary struct {
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	Urgency          Urgency  `json:"urgency"`
	SuggestedActions []string `json:"suggestedActions"`
}

// SeedReports returns the two reports the map starts with, stamped relative to now.
func SeedReports(now time.Time) []CommunityReport {
	return []CommunityReport{
		{
			ID:          "r1",
			Type:        ReportIncident,
			Lat:         37.7749,
			Lng:         -122.4194,
			Title:       "Suspicious Activity",
			Description: "Poor lighting in the alleyway behind Main St. Multiple reports of unsolicited follows in this area after 10 PM. Please use the main road instead.",
			Timestamp:   now.Add(-2 * time.Hour),
			Urgency:     UrgencyMedium,
		},
		{
			ID:          "r2",
			Type:        ReportSafeZone,
			Lat:         37.7833,
			Lng:         -122.4167,
			Title:       "Safe Haven: 24/7 Pharmacy",
			Description: "Well-lit area with security and friendly staff. Highly recommended for waiting for transport or taking a break. Always has people around.",
			Timestamp:   now.Add(-24 * time.Hour),
		},
	}
}
