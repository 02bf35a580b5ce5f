package resilience

import (
	"context"
	"errors"
	"testing"

	diarizemock "github.com/echoinstone/echoinstone/pkg/provider/diarize/mock"
	transcribemock "github.com/echoinstone/echoinstone/pkg/provider/transcribe/mock"
	"github.com/echoinstone/echoinstone/pkg/types"
)

func TestTranscribeFallback_PrimarySuccess(t *testing.T) {
	primary := &transcribemock.Provider{
		Result: &types.TranscriptResult{Text: "from primary"},
	}
	secondary := &transcribemock.Provider{}

	fb := NewTranscribeFallback(primary, "whisper", FallbackConfig{MaxFailures: 3})
	fb.AddFallback("openai", secondary)

	res, err := fb.Transcribe(context.Background(), "audio.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "from primary" {
		t.Fatalf("text = %q, want from primary", res.Text)
	}
	if primary.CallCount() != 1 || secondary.CallCount() != 0 {
		t.Fatalf("calls = %d/%d, want 1/0", primary.CallCount(), secondary.CallCount())
	}
}

func TestTranscribeFallback_Failover(t *testing.T) {
	primary := &transcribemock.Provider{Err: errors.New("model crashed")}
	secondary := &transcribemock.Provider{
		Result: &types.TranscriptResult{Text: "from fallback"},
	}

	fb := NewTranscribeFallback(primary, "whisper", FallbackConfig{MaxFailures: 3})
	fb.AddFallback("openai", secondary)

	res, err := fb.Transcribe(context.Background(), "audio.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "from fallback" {
		t.Fatalf("text = %q, want from fallback", res.Text)
	}
}

func TestTranscribeFallback_AllFail(t *testing.T) {
	primary := &transcribemock.Provider{Err: errors.New("down")}

	fb := NewTranscribeFallback(primary, "whisper", FallbackConfig{MaxFailures: 3})

	_, err := fb.Transcribe(context.Background(), "audio.wav")
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestDiarizeFallback_Failover(t *testing.T) {
	primary := &diarizemock.Provider{Err: errors.New("service unavailable")}
	secondary := &diarizemock.Provider{
		Turns: []types.SpeakerTurn{{Start: 0, End: 3, Speaker: "SPEAKER_00"}},
	}

	fb := NewDiarizeFallback(primary, "pyannote", FallbackConfig{MaxFailures: 3})
	fb.AddFallback("energy", secondary)

	turns, err := fb.Diarize(context.Background(), "audio.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 1 || turns[0].Speaker != "SPEAKER_00" {
		t.Fatalf("turns = %+v", turns)
	}
	if primary.CallCount() != 1 || secondary.CallCount() != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", primary.CallCount(), secondary.CallCount())
	}
}
