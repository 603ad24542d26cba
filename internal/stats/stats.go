// Package stats serves the mock weekly safety index and device panel.
package stats

import "GuardianAI/internal/models"

var (
	weekdays       = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	weeklyIncident = []int{2, 0, 1, 3, 5, 4, 1}
)

// Weekly returns the incident series Mon..Sun.
func Weekly() []models.WeeklyStat {
	out := make([]models.WeeklyStat, len(weekdays))
	for i, day := range weekdays {
		out[i] = models.WeeklyStat{
			Day:       day,
			Incidents: weeklyIncident[i],
			Elevated:  weeklyIncident[i] > models.ElevatedThreshold,
		}
	}
	return out
}

// Device describes the static device panel for the given contact count.
func Device(contacts int) models.DevicePanel {
	return models.DevicePanel{
		Signal:     "Excellent",
		Battery:    "82%",
		Encryption: "AES-256",
		Contacts:   contacts,
	}
}
