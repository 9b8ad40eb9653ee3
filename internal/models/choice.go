package models

import (
	"time"

	"gorm.io/gorm"
)

// ChoiceRecord represents one recorded swipe choice in the database.
// Records are append-only: duplicate (session_id, chart_index) pairs
// accumulate as separate rows.
type ChoiceRecord struct {
	gorm.Model
	SessionID  string    `json:"session_id" gorm:"index"`
	ChartIndex int       `json:"chart_index"`
	ChartData  string    `json:"chart_data"` // opaque JSON snapshot of the chart shown to the user
	Choice     string    `json:"choice"`     // intended to be "green" or "red", not enforced
	Timestamp  time.Time `json:"timestamp"`  // server-assigned at write time
}
