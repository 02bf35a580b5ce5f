package capture

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

// YouTubeDownloader fetches the audio track of a YouTube video using the
// yt-dlp command-line tool, which must be on PATH.
type YouTubeDownloader struct {
	outputDir string
}

// Compile-time assertion that YouTubeDownloader satisfies Downloader.
var _ Downloader = (*YouTubeDownloader)(nil)

// NewYouTubeDownloader returns a downloader writing into outputDir.
func NewYouTubeDownloader(outputDir string) *YouTubeDownloader {
	return &YouTubeDownloader{outputDir: outputDir}
}

// Download runs yt-dlp with bestaudio selection and returns the path of the
// downloaded file.
func (d *YouTubeDownloader) Download(ctx context.Context, input string) (string, error) {
	if err := os.MkdirAll(d.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("capture: create output dir %q: %w", d.outputDir, err)
	}

	template := filepath.Join(d.outputDir, "%(id)s.%(ext)s")

	// --print after_move:filepath makes yt-dlp report the final file path on
	// stdout, which avoids guessing the extension it picked.
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"--no-playlist",
		"-f", "bestaudio/best",
		"-o", template,
		"--print", "after_move:filepath",
		"--no-simulate",
		input,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("downloading youtube audio", "input", input, "output_dir", d.outputDir)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("capture: yt-dlp %q: %w: %s", input, err, strings.TrimSpace(stderr.String()))
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", fmt.Errorf("capture: yt-dlp %q produced no output file", input)
	}
	return path, nil
}
