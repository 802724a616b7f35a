package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"singo-backend/constant"
	"singo-backend/dto"
	"singo-backend/entities"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrEmptyAudioPath = errors.New("audio path is empty")
)

type LeaderboardEntry struct {
	RecordID      uint    `json:"record_id"`
	UserID        uint    `json:"user_id"`
	Username      string  `json:"username"`
	AccuracyScore float64 `json:"accuracy_score"`
}

type Repository interface {
	GetDB() *gorm.DB
	AutoMigrate() error

	CreateUser(ctx context.Context, username, passwordHash string) (*entities.User, error)
	FindUserByUsername(ctx context.Context, username string) (*entities.User, error)
	FindUserByID(ctx context.Context, userID uint) (*entities.User, error)
	UpdateUserKey(ctx context.Context, userID uint, key string) error

	CreateSongWithVersions(ctx context.Context, song *entities.Song, versions []entities.AudioVersion) error
	FindAllSongs(ctx context.Context) ([]entities.Song, error)
	FindVersionByID(ctx context.Context, versionID uint) (*entities.AudioVersion, error)
	AddLyric(ctx context.Context, songID uint, lyric string, timeStart float64) (*entities.Lyric, error)
	LyricsBySongID(ctx context.Context, songID uint) ([]entities.Lyric, error)

	CreateRecording(ctx context.Context, userID, versionID uint, key *string, audioPath string) (*entities.Recording, error)
	FindRecordingByID(ctx context.Context, recordID uint) (*entities.Recording, error)
	UpdateScore(ctx context.Context, recordID uint, score float64) error
	CreateMistakes(ctx context.Context, recordID uint, mistakes []dto.Mistake) (int, error)
	MistakesByRecordingID(ctx context.Context, recordID uint) ([]entities.Mistake, error)
	HistoryByUserID(ctx context.Context, userID uint) ([]entities.Recording, error)
	Leaderboard(ctx context.Context, versionID uint, since time.Time) ([]LeaderboardEntry, error)
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) Repository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

// NewRepoWithDB wraps an already opened gorm handle. Tests use this with the
// sqlite driver.
func NewRepoWithDB(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) AutoMigrate() error {
	return r.db.AutoMigrate(
		&entities.User{},
		&entities.Song{},
		&entities.AudioVersion{},
		&entities.Recording{},
		&entities.Mistake{},
		&entities.Lyric{},
	)
}

func (r *repo) CreateUser(ctx context.Context, username, passwordHash string) (*entities.User, error) {
	user := &entities.User{
		Username: username,
		Password: passwordHash,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *repo) FindUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	user := &entities.User{}
	err := r.db.WithContext(ctx).First(user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *repo) FindUserByID(ctx context.Context, userID uint) (*entities.User, error) {
	user := &entities.User{}
	err := r.db.WithContext(ctx).First(user, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *repo) UpdateUserKey(ctx context.Context, userID uint, key string) error {
	res := r.db.WithContext(ctx).Model(&entities.User{}).Where("user_id = ?", userID).Update("user_key", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSongWithVersions writes the song and its separated versions in one
// transaction so a half-created song never becomes visible.
func (r *repo) CreateSongWithVersions(ctx context.Context, song *entities.Song, versions []entities.AudioVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(song).Error; err != nil {
			return err
		}
		for i := range versions {
			versions[i].SongID = song.SongID
			if err := tx.Create(&versions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindAllSongs lists the catalogue with each song's key versions preloaded.
func (r *repo) FindAllSongs(ctx context.Context) ([]entities.Song, error) {
	var songs []entities.Song
	err := r.db.WithContext(ctx).Preload("Versions").Order("song_id ASC").Find(&songs).Error
	if err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *repo) FindVersionByID(ctx context.Context, versionID uint) (*entities.AudioVersion, error) {
	version := &entities.AudioVersion{}
	err := r.db.WithContext(ctx).First(version, "version_id = ?", versionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return version, nil
}

// AddLyric appends one timed line to a song's lyrics. The song must exist.
func (r *repo) AddLyric(ctx context.Context, songID uint, lyric string, timeStart float64) (*entities.Lyric, error) {
	err := r.db.WithContext(ctx).First(&entities.Song{}, "song_id = ?", songID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	row := &entities.Lyric{
		SongID:    songID,
		Lyric:     lyric,
		TimeStart: timeStart,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repo) LyricsBySongID(ctx context.Context, songID uint) ([]entities.Lyric, error) {
	var lyrics []entities.Lyric
	err := r.db.WithContext(ctx).Where("song_id = ?", songID).Order("timestart ASC").Find(&lyrics).Error
	if err != nil {
		return nil, err
	}
	return lyrics, nil
}

func (r *repo) CreateRecording(ctx context.Context, userID, versionID uint, key *string, audioPath string) (*entities.Recording, error) {
	if audioPath == "" {
		return nil, ErrEmptyAudioPath
	}
	recording := &entities.Recording{
		UserID:        userID,
		VersionID:     versionID,
		Key:           key,
		UserAudioPath: audioPath,
		AccuracyScore: constant.UnscoredScore,
		CreatedAt:     time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(recording).Error; err != nil {
		return nil, err
	}
	return recording, nil
}

func (r *repo) FindRecordingByID(ctx context.Context, recordID uint) (*entities.Recording, error) {
	recording := &entities.Recording{}
	err := r.db.WithContext(ctx).First(recording, "record_id = ?", recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return recording, nil
}

// UpdateScore overwrites the recording's score. Safe to call again with the
// same value on a reconcile retry.
func (r *repo) UpdateScore(ctx context.Context, recordID uint, score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return errors.New("score is not a finite number")
	}
	res := r.db.WithContext(ctx).Model(&entities.Recording{}).Where("record_id = ?", recordID).Update("accuracy_score", score)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateMistakes inserts each mistake independently. A malformed entry is
// logged and skipped; it never aborts the rest of the batch. Returns the
// number of rows actually inserted.
func (r *repo) CreateMistakes(ctx context.Context, recordID uint, mistakes []dto.Mistake) (int, error) {
	if _, err := r.FindRecordingByID(ctx, recordID); err != nil {
		return 0, err
	}

	inserted := 0
	for _, m := range mistakes {
		if !validMistake(m) {
			zerolog.Ctx(ctx).Warn().
				Uint("record_id", recordID).
				Str("reason", m.Reason).
				Float64("pitch_diff", m.PitchDiff).
				Msg("skipping malformed mistake entry")
			continue
		}
		row := entities.Mistake{
			RecordingID: recordID,
			Reason:      m.Reason,
			StartTime:   m.StartTime,
			EndTime:     m.EndTime,
			PitchDiff:   math.Round(math.Abs(m.PitchDiff)),
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Uint("record_id", recordID).
				Msg("failed to insert mistake")
			continue
		}
		inserted++
	}
	return inserted, nil
}

func validMistake(m dto.Mistake) bool {
	for _, v := range []float64{m.StartTime, m.EndTime, m.PitchDiff} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if m.Reason == "" {
		return false
	}
	return m.EndTime >= m.StartTime
}

func (r *repo) MistakesByRecordingID(ctx context.Context, recordID uint) ([]entities.Mistake, error) {
	var mistakes []entities.Mistake
	err := r.db.WithContext(ctx).Where("recording_id = ?", recordID).Order("start_time ASC").Find(&mistakes).Error
	if err != nil {
		return nil, err
	}
	return mistakes, nil
}

func (r *repo) HistoryByUserID(ctx context.Context, userID uint) ([]entities.Recording, error) {
	var recordings []entities.Recording
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&recordings).Error
	if err != nil {
		return nil, err
	}
	return recordings, nil
}

// Leaderboard returns each user's best scored attempt at a version since the
// cutoff. Unscored recordings (sentinel score) never rank.
func (r *repo) Leaderboard(ctx context.Context, versionID uint, since time.Time) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := r.db.WithContext(ctx).
		Table("recording").
		Select("MAX(recording.record_id) AS record_id, recording.user_id, \"user\".username, MAX(recording.accuracy_score) AS accuracy_score").
		Joins("JOIN \"user\" ON \"user\".user_id = recording.user_id").
		Where("recording.version_id = ? AND recording.accuracy_score <> ? AND recording.created_at >= ?", versionID, constant.UnscoredScore, since).
		Group("recording.user_id, \"user\".username").
		Order("accuracy_score DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
