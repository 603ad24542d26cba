package models

type EmergencyContact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// DefaultContacts returns a fresh copy of the seeded contact list.
func DefaultContacts() []EmergencyContact {
	return []EmergencyContact{
		{ID: "1", Name: "Mom", Phone: "+1 234 567 8901", Relation: "Family"},
		{ID: "2", Name: "Sarah", Phone: "+1 987 654 3210", Relation: "Friend"},
	}
}
