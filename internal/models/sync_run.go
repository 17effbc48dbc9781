package models

import (
	"time"
)

const (
	SyncStatusRunning = "running"
	SyncStatusOK      = "ok"
	SyncStatusFailed  = "failed"
)

// SyncRun records one pass of the openFDA company sync.
type SyncRun struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	StartedAt  time.Time  `gorm:"not null;index" json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt"`
	Fetched    int        `json:"fetched"`
	Upserted   int        `json:"upserted"`
	Status     string     `gorm:"size:16;not null" json:"status"`
	Error      string     `gorm:"type:text" json:"error,omitempty"`
}
