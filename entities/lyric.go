package entities

// Lyric is one timed line of a song's lyrics. TimeStart is seconds from the
// start of the track.
type Lyric struct {
	LyricID   uint    `json:"lyric_id" gorm:"column:lyric_id;primaryKey;autoIncrement"`
	SongID    uint    `json:"song_id" gorm:"column:song_id;not null;index"`
	Lyric     string  `json:"lyric" gorm:"column:lyric;not null"`
	TimeStart float64 `json:"timestart" gorm:"column:timestart;not null"`
}

func (Lyric) TableName() string {
	return "lyrics"
}
