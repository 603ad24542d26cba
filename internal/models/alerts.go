package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

const (
	AlertTypeSOS = "SOS"

	AlertStatusPending   = "pending"
	AlertStatusCompleted = "completed"
	AlertStatusCancelled = "cancelled"

	AlertPriorityHigh = "high"

	ActionTrigger   = "trigger"
	ActionStandDown = "stand_down"
)

// Alert is the audit row of one SOS cycle.
type Alert struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	EventID      string `gorm:"size:64;uniqueIndex" json:"eventId"`
	AlertType    string `gorm:"size:16" json:"alertType"`
	Status       string `gorm:"size:16;index" json:"status"`
	Priority     string `gorm:"size:16" json:"priority"`
	AlertDetails string `gorm:"type:text" json:"alertDetails"` // JSON: location and contacts
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AlertAction struct {
	ID         uint   `gorm:"primaryKey"`
	AlertID    uint   `gorm:"index"`
	Action     string `gorm:"size:32"`
	ActionTime time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AlertDetails is what gets serialized into Alert.AlertDetails.
type AlertDetails struct {
	Location *Location          `json:"location"`
	Contacts []EmergencyContact `json:"contacts"`
}

func MigrateAlerts(db *gorm.DB) error {
	return db.AutoMigrate(&Alert{}, &AlertAction{})
}

// CreateAlert stores a pending SOS alert and its trigger action in one transaction.
func CreateAlert(db *gorm.DB, eventID string, details AlertDetails, at time.Time) (*Alert, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	alert := &Alert{
		EventID:      eventID,
		AlertType:    AlertTypeSOS,
		Status:       AlertStatusPending,
		Priority:     AlertPriorityHigh,
		AlertDetails: string(raw),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(alert).Error; err != nil {
			return err
		}
		return tx.Create(&AlertAction{AlertID: alert.ID, Action: ActionTrigger, ActionTime: at}).Error
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// ResolveAlert moves the alert for eventID to status and records action.
func ResolveAlert(db *gorm.DB, eventID, status, action string, at time.Time) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var alert Alert
		if err := tx.Where("event_id = ?", eventID).First(&alert).Error; err != nil {
			return err
		}
		if err := tx.Model(&alert).Update("status", status).Error; err != nil {
			return err
		}
		return tx.Create(&AlertAction{AlertID: alert.ID, Action: action, ActionTime: at}).Error
	})
}

func GetAlertByEventID(db *gorm.DB, eventID string) (*Alert, error) {
	var alert Alert
	if err := db.Where("event_id = ?", eventID).First(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func ListAlertActions(db *gorm.DB, alertID uint) ([]AlertAction, error) {
	var actions []AlertAction
	err := db.Where("alert_id = ?", alertID).Order("id").Find(&actions).Error
	return actions, err
}
