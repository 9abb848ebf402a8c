// Package ffmpeg shells out to the ffmpeg binary to cut per-speaker clips.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Extractor cuts fixed windows out of a downloaded media file.
type Extractor struct {
	binary string
}

// NewExtractor creates an extractor using the ffmpeg binary on PATH.
func NewExtractor() *Extractor {
	return &Extractor{binary: "ffmpeg"}
}

// ExtractClip writes the [startSeconds, startSeconds+durationSeconds)
// window of src to dst, re-encoding for frame accuracy. The clip window is
// seeked with -ss/-t; an existing dst is overwritten.
func (e *Extractor) ExtractClip(ctx context.Context, src, dst string, startSeconds, durationSeconds int) error {
	cmd := exec.CommandContext(ctx, e.binary,
		"-y",
		"-i", src,
		"-ss", strconv.Itoa(startSeconds),
		"-t", strconv.Itoa(durationSeconds),
		dst,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg extract %s [%d,%d): %w\nstderr: %s",
			src, startSeconds, startSeconds+durationSeconds, err, stderr.String())
	}
	return nil
}
