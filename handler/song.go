package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"singo-backend/dto"
	"singo-backend/repository"
	"singo-backend/service"
)

// CreateSong stores a new song's assets, sends the mix for separation and
// creates the song with its per-key versions.
func (h *Handler) CreateSong(c *gin.Context) {
	songHeader, err := c.FormFile("song")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing song file"))
		return
	}
	songName := c.PostForm("songName")
	if songName == "" {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing songName"))
		return
	}

	songAsset, err := readAsset(songHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing song file"))
		return
	}

	in := service.CreateSongInput{
		Name:   songName,
		Lyrics: c.PostForm("lyrics"),
		Singer: c.PostForm("singer"),
		Song:   *songAsset,
	}
	if header, err := c.FormFile("album_cover"); err == nil {
		if asset, err := readAsset(header); err == nil {
			in.AlbumCover = asset
		}
	}
	if header, err := c.FormFile("previewsong"); err == nil {
		if asset, err := readAsset(header); err == nil {
			in.Preview = asset
		}
	}

	song, versions, err := h.Songs.Create(c.Request.Context(), in)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("song", songName).Msg("song creation failed")
		c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.OK("Song and versions created successfully", gin.H{
		"song":     song,
		"versions": versions,
	}))
}

// ListSongs returns the whole catalogue with each song's key versions.
func (h *Handler) ListSongs(c *gin.Context) {
	songs, err := h.Repo.FindAllSongs(c.Request.Context())
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("song listing failed")
		c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
		return
	}
	if len(songs) == 0 {
		c.JSON(http.StatusNotFound, dto.Fail("Song not found"))
		return
	}
	c.JSON(http.StatusOK, dto.OK("Song found", songs))
}

// AddLyric appends one timed lyric line to a song.
func (h *Handler) AddLyric(c *gin.Context) {
	var req dto.AddLyricRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SongID == 0 {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing song id"))
		return
	}

	lyric, err := h.Repo.AddLyric(c.Request.Context(), req.SongID, req.Lyric, req.TimeStart)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.Fail("Song not found"))
		return
	}
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Uint("song_id", req.SongID).Msg("add lyric failed")
		c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.OK("Add lyric successfully", lyric))
}

// GetLyrics returns a song's lyric lines ordered by start time.
func (h *Handler) GetLyrics(c *gin.Context) {
	var req dto.LyricsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SongID == 0 {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing song id"))
		return
	}

	lyrics, err := h.Repo.LyricsBySongID(c.Request.Context(), req.SongID)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Uint("song_id", req.SongID).Msg("get lyrics failed")
		c.JSON(http.StatusInternalServerError, dto.Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.OK("Get lyric successfully", lyrics))
}

func readAsset(header *multipart.FileHeader) (*service.Asset, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &service.Asset{Filename: header.Filename, Data: data}, nil
}
