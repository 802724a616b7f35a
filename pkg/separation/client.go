package separation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// SeparatedVersion is one key-shifted instrumental/vocal rendition produced
// by the separation service.
type SeparatedVersion struct {
	Status        string `json:"status"`
	InstruPath    string `json:"instru_path"`
	VocalPath     string `json:"vocal_path"`
	Key           string `json:"key"`
	SemitoneShift int    `json:"semitone_shift"`
	IsOriginal    bool   `json:"is_original"`
}

type uploadResponse struct {
	Status      string             `json:"status"`
	Message     string             `json:"message"`
	OriginalKey string             `json:"original_key"`
	Separated   []SeparatedVersion `json:"separated"`
}

// UploadResult carries everything the song service needs to create version
// rows.
type UploadResult struct {
	OriginalKey string
	Separated   []SeparatedVersion
}

// Client drives the source-separation service. Separation is slow, so the
// request window comes from config rather than a hard-coded client timeout.
type Client struct {
	baseURL string
	window  time.Duration
	http    *http.Client
}

func NewClient(baseURL string, window time.Duration) *Client {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &Client{
		baseURL: baseURL,
		window:  window,
		http:    &http.Client{},
	}
}

// UploadSong sends the full mix for separation into per-key vocal and
// instrumental renditions.
func (c *Client) UploadSong(ctx context.Context, songName, filename string, audio io.Reader) (*UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.window)
	defer cancel()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("song", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, err
	}
	if err := writer.WriteField("song_name", songName); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-song", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK || body.Status != "success" {
		msg := body.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("song separation failed: %s", msg)
	}

	return &UploadResult{
		OriginalKey: body.OriginalKey,
		Separated:   body.Separated,
	}, nil
}
