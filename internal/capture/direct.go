package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DirectDownloader handles inputs that already point at an audio file:
// remote .mp3/.wav URLs are fetched over HTTP, local paths are passed
// through untouched.
type DirectDownloader struct {
	outputDir string
	client    *http.Client
}

// Compile-time assertion that DirectDownloader satisfies Downloader.
var _ Downloader = (*DirectDownloader)(nil)

// NewDirectDownloader returns a downloader writing into outputDir.
func NewDirectDownloader(outputDir string) *DirectDownloader {
	return &DirectDownloader{
		outputDir: outputDir,
		client:    &http.Client{Timeout: 30 * time.Minute},
	}
}

// Download returns input unchanged when it is an existing local file,
// otherwise fetches it over HTTP into the output directory.
func (d *DirectDownloader) Download(ctx context.Context, input string) (string, error) {
	if _, err := os.Stat(input); err == nil {
		return input, nil
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return "", fmt.Errorf("capture: %q is neither an existing file nor an HTTP URL", input)
	}

	slog.Debug("downloading audio file", "input", input)
	return fetchToFile(ctx, d.client, input, d.outputDir)
}

// fetchToFile downloads rawURL into destDir, naming the file after the URL
// path's base name, and returns the local path.
func fetchToFile(ctx context.Context, client *http.Client, rawURL, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("capture: create output dir %q: %w", destDir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("capture: build request for %q: %w", rawURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("capture: fetch %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("capture: fetch %q: %s", rawURL, resp.Status)
	}

	dest := filepath.Join(destDir, fileNameFromURL(rawURL))
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("capture: create %q: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("capture: write %q: %w", dest, err)
	}
	return dest, nil
}

// fileNameFromURL derives a safe local file name from a URL, falling back
// to a fixed name when the URL path has none.
func fileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download.audio"
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "download.audio"
	}
	return name
}
