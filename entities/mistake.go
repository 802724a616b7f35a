package entities

// Mistake is one timestamped pitch discrepancy between a recording and its
// version's reference vocal. StartTime and EndTime are seconds from the start
// of the audio; PitchDiff is rounded to a non-negative whole number of cents.
type Mistake struct {
	ID          uint    `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	RecordingID uint    `json:"recording_id" gorm:"column:recording_id;not null;index"`
	Reason      string  `json:"reason" gorm:"column:reason;not null"`
	StartTime   float64 `json:"start_time" gorm:"column:start_time"`
	EndTime     float64 `json:"end_time" gorm:"column:end_time"`
	PitchDiff   float64 `json:"pitch_diff" gorm:"column:pitch_diff"`
}

func (Mistake) TableName() string {
	return "mistakes"
}
