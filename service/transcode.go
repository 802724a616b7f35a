package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrTranscode means ffmpeg failed or ran past its deadline.
	ErrTranscode = errors.New("transcode failed")
	// ErrStorage means the scratch or destination file could not be written.
	ErrStorage = errors.New("storage failed")
)

// Transcoder converts a captured take, whatever container the client sent,
// into an mp3 under the user's durable upload directory.
type Transcoder struct {
	RootDir    string
	FFmpegPath string
	Timeout    time.Duration
}

func NewTranscoder(rootDir, ffmpegPath string, timeout time.Duration) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Transcoder{
		RootDir:    rootDir,
		FFmpegPath: ffmpegPath,
		Timeout:    timeout,
	}
}

// Transcode writes rawAudio to a scratch file, converts it, and returns the
// path of the durable mp3. The scratch file is removed whether or not the
// conversion succeeds.
func (t *Transcoder) Transcode(ctx context.Context, rawAudio []byte, userID uint) (string, error) {
	scratch, err := os.CreateTemp("", "take-*.raw")
	if err != nil {
		return "", errors.Join(ErrStorage, err)
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)

	if _, err := scratch.Write(rawAudio); err != nil {
		scratch.Close()
		return "", errors.Join(ErrStorage, err)
	}
	if err := scratch.Close(); err != nil {
		return "", errors.Join(ErrStorage, err)
	}

	destDir := filepath.Join(t.RootDir, "users", strconv.FormatUint(uint64(userID), 10))
	if err := os.MkdirAll(destDir, os.ModePerm); err != nil {
		return "", errors.Join(ErrStorage, err)
	}

	destPath := filepath.Join(destDir, uuid.NewString()+".mp3")

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.FFmpegPath,
		"-y",
		"-i", scratchPath,
		"-codec:a", "libmp3lame",
		"-qscale:a", "2",
		destPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(destPath)
		zerolog.Ctx(ctx).Error().Err(err).Str("output", string(output)).Msg("ffmpeg execution failed")
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: timeout", ErrTranscode)
		}
		return "", errors.Join(ErrTranscode, err)
	}

	return destPath, nil
}
