package entities

// AudioVersion is one musical-key rendition of a song: a separated
// instrumental/vocal pair, shifted by SemitoneShift from the original.
type AudioVersion struct {
	VersionID     uint   `json:"version_id" gorm:"column:version_id;primaryKey;autoIncrement"`
	SongID        uint   `json:"song_id" gorm:"column:song_id;not null;index"`
	InstruPath    string `json:"instru_path" gorm:"column:instru_path"`
	OriPath       string `json:"ori_path" gorm:"column:ori_path"`
	KeySignature  string `json:"key_signature" gorm:"column:key_signature"`
	SemitoneShift int    `json:"semitone_shift" gorm:"column:semitone_shift"`
	IsOriginal    bool   `json:"is_original" gorm:"column:is_original"`
}

func (AudioVersion) TableName() string {
	return "audio_version"
}
