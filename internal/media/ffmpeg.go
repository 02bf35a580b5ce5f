// Package media converts downloaded audio into the format the transcription
// and diarization providers expect, by shelling out to ffmpeg.
package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Target format: 16 kHz mono 16-bit PCM WAV, the input whisper models are
// trained on and the least surprising format for diarization services.
const (
	targetSampleRate = 16000
	targetChannels   = 1
)

// Converter turns arbitrary media files into 16 kHz mono WAV using the
// ffmpeg binary, which must be on PATH.
type Converter struct {
	workDir  string
	highpass bool
}

// Option is a functional option for configuring a Converter.
type Option func(*Converter)

// WithVoiceFilter enables a band-pass filter (highpass 100 Hz, lowpass
// 8 kHz) that strips rumble and hiss outside the speech band before
// transcription.
func WithVoiceFilter() Option {
	return func(c *Converter) { c.highpass = true }
}

// NewConverter returns a Converter writing WAV files into workDir. An empty
// workDir means the system temp directory.
func NewConverter(workDir string, opts ...Option) *Converter {
	if workDir == "" {
		workDir = os.TempDir()
	}
	c := &Converter{workDir: workDir}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ToWAV converts the media file at inputPath and returns the path of the
// resulting WAV file. Inputs that are already WAV are still run through
// ffmpeg so the sample rate and channel layout are guaranteed.
func (c *Converter) ToWAV(ctx context.Context, inputPath string) (string, error) {
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return "", fmt.Errorf("media: create work dir %q: %w", c.workDir, err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(c.workDir, base+"_16k.wav")

	args := c.buildArgs(inputPath, out)
	slog.Debug("converting audio", "input", inputPath, "output", out)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("media: ffmpeg %q: %w: %s", inputPath, err, lastLine(stderr.String()))
	}
	return out, nil
}

// buildArgs assembles the ffmpeg argument list for a conversion.
func (c *Converter) buildArgs(in, out string) []string {
	args := []string{
		"-y",
		"-i", in,
		"-ac", fmt.Sprint(targetChannels),
		"-ar", fmt.Sprint(targetSampleRate),
	}
	if c.highpass {
		args = append(args, "-af", "highpass=f=100,lowpass=f=8000")
	}
	return append(args, "-f", "wav", out)
}

// lastLine returns the final non-empty line of s; ffmpeg puts the useful
// error message there, after pages of banner output.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
