package entities

type Song struct {
	SongID       uint    `json:"song_id" gorm:"column:song_id;primaryKey;autoIncrement"`
	Title        string  `json:"title" gorm:"column:title;not null"`
	KeySignature string  `json:"key_signature" gorm:"column:key_signature"`
	Lyrics       *string `json:"lyrics" gorm:"column:lyrics"`
	Singer       string  `json:"singer" gorm:"column:singer"`
	AlbumCover   *string `json:"album_cover" gorm:"column:album_cover"`
	PreviewSong  *string `json:"previewsong" gorm:"column:previewsong"`

	Versions []AudioVersion `json:"versions,omitempty" gorm:"foreignKey:SongID;references:SongID"`
}

func (Song) TableName() string {
	return "song"
}
