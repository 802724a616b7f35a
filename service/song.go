package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"singo-backend/entities"
	"singo-backend/pkg/separation"
	"singo-backend/repository"
)

// Separator is the upload-song call of the source-separation service.
type Separator interface {
	UploadSong(ctx context.Context, songName, filename string, audio io.Reader) (*separation.UploadResult, error)
}

type Asset struct {
	Filename string
	Data     []byte
}

type CreateSongInput struct {
	Name       string
	Lyrics     string
	Singer     string
	Song       Asset
	AlbumCover *Asset
	Preview    *Asset
}

type SongService interface {
	Create(ctx context.Context, in CreateSongInput) (*entities.Song, []entities.AudioVersion, error)
}

type songService struct {
	repo      repository.Repository
	separator Separator
	storage   *minio.Client
	bucket    string
}

func NewSongService(repo repository.Repository, separator Separator, storage *minio.Client, bucket string) SongService {
	return &songService{
		repo:      repo,
		separator: separator,
		storage:   storage,
		bucket:    bucket,
	}
}

// Create stores the song's presentation assets, sends the mix for source
// separation, and writes the song with one version row per rendition.
func (s *songService) Create(ctx context.Context, in CreateSongInput) (*entities.Song, []entities.AudioVersion, error) {
	if in.Name == "" {
		return nil, nil, errors.New("missing songName")
	}
	if len(in.Song.Data) == 0 {
		return nil, nil, errors.New("missing song file")
	}

	albumCover, err := s.putAsset(ctx, in.Name, "albumCover", in.AlbumCover)
	if err != nil {
		return nil, nil, err
	}
	preview, err := s.putAsset(ctx, in.Name, "preview", in.Preview)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.separator.UploadSong(ctx, in.Name, in.Song.Filename, bytes.NewReader(in.Song.Data))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("song", in.Name).Msg("song separation failed")
		return nil, nil, err
	}

	song := &entities.Song{
		Title:        in.Name,
		KeySignature: result.OriginalKey,
		Singer:       in.Singer,
		AlbumCover:   albumCover,
		PreviewSong:  preview,
	}
	if in.Lyrics != "" {
		song.Lyrics = &in.Lyrics
	}

	versions := make([]entities.AudioVersion, 0, len(result.Separated))
	for _, item := range result.Separated {
		if item.Status != "done" {
			zerolog.Ctx(ctx).Warn().
				Str("song", in.Name).
				Str("key", item.Key).
				Str("status", item.Status).
				Msg("skipping unfinished rendition")
			continue
		}
		versions = append(versions, entities.AudioVersion{
			InstruPath:    item.InstruPath,
			OriPath:       item.VocalPath,
			KeySignature:  item.Key,
			SemitoneShift: item.SemitoneShift,
			IsOriginal:    item.IsOriginal,
		})
	}

	if err := s.repo.CreateSongWithVersions(ctx, song, versions); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("song", in.Name).Msg("failed to create song")
		return nil, nil, err
	}

	return song, versions, nil
}

// putAsset uploads an optional presentation asset and returns its object
// name, or nil when the asset was not provided.
func (s *songService) putAsset(ctx context.Context, songName, kind string, asset *Asset) (*string, error) {
	if asset == nil || len(asset.Data) == 0 {
		return nil, nil
	}
	objectName := path.Join("song", songName, kind, asset.Filename)
	_, err := s.storage.PutObject(ctx, s.bucket, objectName, bytes.NewReader(asset.Data), int64(len(asset.Data)), minio.PutObjectOptions{})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("object", objectName).Msg("failed to store asset")
		return nil, err
	}
	return &objectName, nil
}
