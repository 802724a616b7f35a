package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"singo-backend/dto"
)

var (
	// ErrUnreachable covers connection failures and timeouts.
	ErrUnreachable = errors.New("scoring service unreachable")
	// ErrRejected means the service answered but declined to score.
	ErrRejected = errors.New("scoring service rejected comparison")
	// ErrProtocol means the response body could not be decoded.
	ErrProtocol = errors.New("scoring service protocol error")
)

// Result is the verdict of one comparison run.
type Result struct {
	FinalScore  float64       `json:"finalScore"`
	QualityTier *string       `json:"qualityTier"`
	Mistakes    []dto.Mistake `json:"mistakes"`
	Message     string        `json:"-"`
}

type compareRequest struct {
	OriginalSongPath string `json:"originalSongPath"`
	UserSongPath     string `json:"userSongPath"`
}

type compareResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Data    *Result `json:"data"`
}

// Client talks to the external vocal-comparison service. One request per
// Compare call, no retries; retry policy belongs to the caller.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{},
	}
}

// Compare submits the reference vocal and the user take for comparison. The
// call is bounded by the client's timeout on top of any deadline already on
// ctx.
func (c *Client) Compare(ctx context.Context, originalSongPath, userSongPath string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(compareRequest{
		OriginalSongPath: originalSongPath,
		UserSongPath:     userSongPath,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/compare", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrUnreachable, err)
	}
	defer resp.Body.Close()

	// A non-2xx answer is a rejection even when the body is not JSON
	// (proxies answer with HTML error pages).
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		var body compareResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
			msg = body.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	var body compareResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Join(ErrProtocol, err)
	}

	if !body.Success {
		msg := body.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrProtocol)
	}

	result := body.Data
	result.Message = body.Message
	return result, nil
}
