package model

import (
	"encoding/json"
	"time"
)

type OperationKind string

const (
	OpSubmitAttempt  OperationKind = "submit_attempt"
	OpUpdateProgress OperationKind = "update_progress"
)

// PendingOperation is a locally queued mutation awaiting remote
// acknowledgment. The auto-increment ID doubles as the FIFO order.
// Rows are deleted only after the remote service has acked delivery.
type PendingOperation struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      OperationKind   `gorm:"size:50;not null;index" json:"kind"`
	TargetID  string          `gorm:"size:36;index" json:"targetId"` // attempt/progress identity, for dedup
	Payload   json.RawMessage `gorm:"type:json" json:"payload"`
	Attempts  int             `gorm:"default:0" json:"attempts"`
	Synced    bool            `gorm:"default:false;index" json:"synced"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (PendingOperation) TableName() string {
	return "pending_operations"
}
