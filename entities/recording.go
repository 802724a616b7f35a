package entities

import (
	"time"

	"singo-backend/constant"
)

// Recording is one user's attempt at singing an audio version. AccuracyScore
// holds constant.UnscoredScore until the scoring verdict is persisted.
type Recording struct {
	RecordID      uint      `json:"record_id" gorm:"column:record_id;primaryKey;autoIncrement"`
	UserID        uint      `json:"user_id" gorm:"column:user_id;not null;index"`
	VersionID     uint      `json:"version_id" gorm:"column:version_id;not null;index"`
	Key           *string   `json:"key" gorm:"column:key"`
	UserAudioPath string    `json:"user_audio_path" gorm:"column:user_audio_path;not null"`
	AccuracyScore float64   `json:"accuracy_score" gorm:"column:accuracy_score;not null;default:-1"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Recording) TableName() string {
	return "recording"
}

func (r Recording) Scored() bool {
	return r.AccuracyScore != constant.UnscoredScore
}
