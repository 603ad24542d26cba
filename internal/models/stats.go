package models

// ElevatedThreshold is the daily incident count above which a bar is drawn red.
const ElevatedThreshold = 3

type WeeklyStat struct {
	Day       string `json:"day"`
	Incidents int    `json:"incidents"`
	Elevated  bool   `json:"elevated"`
}

// DevicePanel holds the static values of the device status card.
type DevicePanel struct {
	Signal     string `json:"signal"`
	Battery    string `json:"battery"`
	Encryption string `json:"encryption"`
	Contacts   int    `json:"contacts"`
}
