package model

import "time"

// EngineStatus is the persisted run flag of a user's trading engine.
type EngineStatus struct {
	UserID        string     `gorm:"primaryKey;size:64;column:user_id" json:"user_id"`
	IsRunning     bool       `gorm:"column:is_running;not null" json:"is_running"`
	LastStartedAt *time.Time `gorm:"column:last_started_at" json:"last_started_at,omitempty"`
	LastStoppedAt *time.Time `gorm:"column:last_stopped_at" json:"last_stopped_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (EngineStatus) TableName() string {
	return "engine_status"
}
