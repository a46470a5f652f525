package models

import (
	"time"

	"gorm.io/datatypes"
)

// Gateway event processing states
const (
	EventReceived  = "received"
	EventProcessed = "processed"
	EventFailed    = "failed"
)

// GatewayEvent is an audit row for every verified inbound webhook. It is
// written before the event is applied and updated once processing settles,
// so redeliveries and permanently failing events can be traced.
type GatewayEvent struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	Provider   string         `json:"provider" gorm:"index;not null"` // stripe, clerk, pdfmonkey
	EventType  string         `json:"event_type"`
	ExternalID string         `json:"external_id" gorm:"index"` // purchase id, user id or userId:courseId pair
	Payload    datatypes.JSON `json:"payload"`
	Status     string         `json:"status" gorm:"default:'received'"`
	Note       string         `json:"note"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
