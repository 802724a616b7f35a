package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"singo-backend/repository"
)

func privateJSON(t *testing.T, router http.Handler, userID uint, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie(t, userID))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func firstSongID(t *testing.T, repo repository.Repository) uint {
	t.Helper()
	songs, err := repo.FindAllSongs(context.Background())
	if err != nil || len(songs) == 0 {
		t.Fatalf("expected seeded song, got %v (%v)", songs, err)
	}
	return songs[0].SongID
}

func TestListSongsReturnsVersions(t *testing.T) {
	repo := newTestRepo(t)
	user, _ := seedUserAndVersion(t, repo)
	router := newTestRouter(t, repo, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "/private/song", nil)
	req.AddCookie(sessionCookie(t, user.UserID))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || resp.Message != "Song found" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	songs, ok := resp.Data.([]any)
	if !ok || len(songs) != 1 {
		t.Fatalf("expected one song, got %v", resp.Data)
	}
	song, ok := songs[0].(map[string]any)
	if !ok {
		t.Fatalf("unexpected song payload: %T", songs[0])
	}
	versions, ok := song["versions"].([]any)
	if !ok || len(versions) != 1 {
		t.Fatalf("expected one version on song, got %v", song["versions"])
	}
}

func TestListSongsEmptyCatalogue(t *testing.T) {
	repo := newTestRepo(t)
	user, err := repo.CreateUser(context.Background(), "listener", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	router := newTestRouter(t, repo, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "/private/song", nil)
	req.AddCookie(sessionCookie(t, user.UserID))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Message != "Song not found" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestAddAndGetLyrics(t *testing.T) {
	repo := newTestRepo(t)
	user, _ := seedUserAndVersion(t, repo)
	router := newTestRouter(t, repo, "http://127.0.0.1:0")
	songID := firstSongID(t, repo)

	rec := privateJSON(t, router, user.UserID,
		"/private/lyric", fmt.Sprintf(`{"song_id":%d,"lyric":"hello darkness","timestart":3.5}`, songID))
	if rec.Code != http.StatusOK {
		t.Fatalf("add lyric: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeResponse(t, rec); resp.Message != "Add lyric successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	rec = privateJSON(t, router, user.UserID,
		"/private/lyric", fmt.Sprintf(`{"song_id":%d,"lyric":"my old friend","timestart":6.0}`, songID))
	if rec.Code != http.StatusOK {
		t.Fatalf("add second lyric: expected 200, got %d", rec.Code)
	}

	rec = privateJSON(t, router, user.UserID,
		"/private/lyrics", fmt.Sprintf(`{"song_id":%d}`, songID))
	if rec.Code != http.StatusOK {
		t.Fatalf("get lyrics: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Message != "Get lyric successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	lines, ok := resp.Data.([]any)
	if !ok || len(lines) != 2 {
		t.Fatalf("expected two lyric lines, got %v", resp.Data)
	}
	first, ok := lines[0].(map[string]any)
	if !ok || first["lyric"] != "hello darkness" {
		t.Fatalf("expected lines ordered by start time, got %v", lines)
	}
}

func TestAddLyricMissingSongID(t *testing.T) {
	repo := newTestRepo(t)
	user, _ := seedUserAndVersion(t, repo)
	router := newTestRouter(t, repo, "http://127.0.0.1:0")

	rec := privateJSON(t, router, user.UserID, "/private/lyric", `{"lyric":"orphan line"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Message != "Missing song id" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestAddLyricUnknownSong(t *testing.T) {
	repo := newTestRepo(t)
	user, _ := seedUserAndVersion(t, repo)
	router := newTestRouter(t, repo, "http://127.0.0.1:0")

	rec := privateJSON(t, router, user.UserID, "/private/lyric", `{"song_id":9999,"lyric":"line"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Message != "Song not found" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}
