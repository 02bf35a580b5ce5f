// Package capture retrieves audio from the supported source kinds — YouTube
// videos, podcast RSS feeds, and direct audio URLs or local files — and
// hands the orchestrator a local file path.
//
// [ForInput] picks the downloader from the shape of the input string, the
// same dispatch rules the system has always used: YouTube hosts go to
// yt-dlp, ".xml" inputs are treated as podcast feeds, and ".mp3"/".wav"
// inputs are fetched (or passed through) directly.
package capture

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Downloader retrieves the audio behind an input reference and returns the
// path of a local media file. The returned file is not necessarily WAV; the
// media package converts it before the providers see it.
type Downloader interface {
	// Download fetches input into the downloader's output directory and
	// returns the local file path.
	Download(ctx context.Context, input string) (string, error)
}

// ErrUnsupportedInput is wrapped by [ForInput] when no downloader handles
// the given input shape.
var ErrUnsupportedInput = fmt.Errorf("capture: unsupported input format")

// ForInput returns the downloader responsible for input, dispatching on the
// URL shape.
func ForInput(input, outputDir string) (Downloader, error) {
	switch {
	case isYouTube(input):
		return NewYouTubeDownloader(outputDir), nil
	case strings.HasSuffix(input, ".xml"):
		return NewPodcastDownloader(outputDir), nil
	case hasAudioSuffix(input):
		return NewDirectDownloader(outputDir), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInput, input)
	}
}

func isYouTube(input string) bool {
	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	return host == "youtube.com" || host == "youtu.be" || host == "m.youtube.com"
}

func hasAudioSuffix(input string) bool {
	lower := strings.ToLower(input)
	return strings.HasSuffix(lower, ".mp3") || strings.HasSuffix(lower, ".wav")
}
