package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompareSuccess(t *testing.T) {
	var gotBody compareRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/compare" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"ok","data":{"finalScore":82.5,"qualityTier":null,"mistakes":[{"reason":"too-high","start_time":12.0,"end_time":13.0,"pitch_diff":45.2}]}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	result, err := client.Compare(context.Background(), "song/ref.mp3", "users/1/take.mp3")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if gotBody.OriginalSongPath != "song/ref.mp3" || gotBody.UserSongPath != "users/1/take.mp3" {
		t.Fatalf("unexpected request payload: %+v", gotBody)
	}
	if result.FinalScore != 82.5 {
		t.Fatalf("expected score 82.5, got %v", result.FinalScore)
	}
	if len(result.Mistakes) != 1 || result.Mistakes[0].Reason != "too-high" {
		t.Fatalf("unexpected mistakes: %+v", result.Mistakes)
	}
	if result.Mistakes[0].StartTime != 12.0 || result.Mistakes[0].EndTime != 13.0 {
		t.Fatalf("unexpected mistake times: %+v", result.Mistakes[0])
	}
}

func TestCompareRejectedCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"low confidence"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Compare(context.Background(), "ref", "take")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "low confidence") {
		t.Fatalf("expected service message in error, got %q", got)
	}
}

func TestCompareNonSuccessStatusWithHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html><body>502 Bad Gateway</body></html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Compare(context.Background(), "ref", "take")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected for non-2xx with HTML body, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("expected status in message, got %q", err.Error())
	}
}

func TestCompareNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.Compare(context.Background(), "ref", "take"); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestCompareProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not json`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.Compare(context.Background(), "ref", "take"); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestCompareMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"message":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.Compare(context.Background(), "ref", "take"); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol for missing data, got %v", err)
	}
}

func TestCompareUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.Compare(context.Background(), "ref", "take"); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

// A slow endpoint gets exactly one bounded request, never a retry.
func TestCompareSingleBoundedAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 100*time.Millisecond)
	start := time.Now()
	_, err := client.Compare(context.Background(), "ref", "take")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable on timeout, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("compare not bounded by timeout, took %v", elapsed)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one outbound call, got %d", got)
	}
}
