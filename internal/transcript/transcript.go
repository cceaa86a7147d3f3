package transcript

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"tubescribe.app/bot/common/logger"
)

// Reason classifies acquisition failures. String forms double as the
// user-facing failure class, never a raw error chain.
type Reason string

const (
	ReasonNoIdentifiableVideo    Reason = "no_identifiable_video"
	ReasonDisabled               Reason = "disabled"
	ReasonNoTranscript           Reason = "no_transcript_in_any_language"
	ReasonMalformedPayload       Reason = "malformed_payload"
	ReasonDownloadError          Reason = "download_error"
	ReasonTranscriptionError     Reason = "transcription_error"
	ReasonUnsupportedAudioFormat Reason = "unsupported_audio_format"
)

// UserMessage is the short human-readable status string surfaced to the chat.
func (r Reason) UserMessage() string {
	switch r {
	case ReasonNoIdentifiableVideo:
		return "I couldn't find a video in that link."
	case ReasonDisabled:
		return "Transcripts are disabled for this video."
	case ReasonNoTranscript:
		return "No transcript is available for this video in any language."
	case ReasonMalformedPayload:
		return "The video's captions could not be read."
	case ReasonDownloadError:
		return "Downloading the video content failed."
	case ReasonTranscriptionError:
		return "Transcribing the video's audio failed."
	case ReasonUnsupportedAudioFormat:
		return "The video's audio format is not supported."
	default:
		return "Acquiring the video's content failed."
	}
}

// AcquireError is the tagged failure outcome of an acquisition. Nothing raises
// past the acquirer boundary; every failure is converted into one of these.
type AcquireError struct {
	Reason Reason
	Err    error
}

func (e *AcquireError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transcript: %s", e.Reason)
	}
	return fmt.Sprintf("transcript: %s: %v", e.Reason, e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

func acquireErr(reason Reason, err error) *AcquireError {
	return &AcquireError{Reason: reason, Err: err}
}

// ReasonOf extracts the failure reason from an acquisition error,
// falling back to download_error for untagged errors.
func ReasonOf(err error) Reason {
	if ae, ok := err.(*AcquireError); ok {
		return ae.Reason
	}
	return ReasonDownloadError
}

// Sources of acquired text.
const (
	SourceCaptions = "captions"
	SourceSpeech   = "speech"
)

// Result is the successful outcome: the canonical video id and its full text.
// Never partially populated.
type Result struct {
	VideoID string
	Title   string
	Text    string
	Source  string
}

// VideoInfo is the slice of video metadata the acquirer needs.
type VideoInfo struct {
	ID            string
	Title         string
	CaptionTracks []CaptionTrack
}

// CaptionTrack is one language-tagged subtitle stream, author-supplied or
// machine-generated ("asr").
type CaptionTrack struct {
	LanguageCode string
	Name         string
	Kind         string
	BaseURL      string
}

// VideoService abstracts the video host: metadata lookup and audio streaming.
type VideoService interface {
	Video(ctx context.Context, videoID string) (*VideoInfo, error)
	// AudioStream returns the best-available audio stream and its file
	// extension (with leading dot).
	AudioStream(ctx context.Context, videoID string) (io.ReadCloser, string, error)
}

// CaptionFetcher retrieves a caption track's raw payload.
type CaptionFetcher interface {
	Fetch(ctx context.Context, track CaptionTrack) ([]byte, error)
}

// AudioTranscriber is the download+transcode+recognize fallback.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, videoID string) (string, error)
}

// Acquirer produces a video's text through the ordered strategy chain:
// caption fetch first, then audio download + speech-to-text. The first
// successful strategy short-circuits; each strategy runs at most once.
type Acquirer struct {
	videos   VideoService
	captions CaptionFetcher
	audio    AudioTranscriber
}

func NewAcquirer(videos VideoService, captions CaptionFetcher, audio AudioTranscriber) *Acquirer {
	return &Acquirer{videos: videos, captions: captions, audio: audio}
}

// Acquire resolves rawURL to a canonical video id and returns its text.
// A reference with no extractable id fails immediately without any network
// call. All failures come back as *AcquireError.
func (a *Acquirer) Acquire(ctx context.Context, rawURL string) (Result, error) {
	id, err := ExtractVideoID(rawURL)
	if err != nil {
		return Result{}, acquireErr(ReasonNoIdentifiableVideo, err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		VideoID:   logger.Ptr(id),
		Component: "transcript.acquirer",
	})

	res, capErr := a.fromCaptions(ctx, id)
	if capErr == nil {
		return res, nil
	}
	slog.InfoContext(ctx, "caption branch failed, falling back to audio",
		"reason", ReasonOf(capErr),
		"error", capErr)

	text, audioErr := a.audio.Transcribe(ctx, id)
	if audioErr == nil {
		return Result{VideoID: id, Text: text, Source: SourceSpeech}, nil
	}
	slog.WarnContext(ctx, "audio branch failed",
		"reason", ReasonOf(audioErr),
		"error", audioErr)

	return Result{}, mostSpecific(capErr, audioErr)
}

func (a *Acquirer) fromCaptions(ctx context.Context, id string) (Result, error) {
	info, err := a.videos.Video(ctx, id)
	if err != nil {
		return Result{}, acquireErr(ReasonDownloadError, err)
	}

	// An empty track list means the uploader disabled transcripts; reported
	// distinctly from "tracks exist but none yielded text".
	if len(info.CaptionTracks) == 0 {
		return Result{}, acquireErr(ReasonDisabled, nil)
	}

	track, ok := selectTrack(info.CaptionTracks)
	if !ok {
		return Result{}, acquireErr(ReasonNoTranscript, nil)
	}
	slog.DebugContext(ctx, "caption track selected",
		"language", track.LanguageCode,
		"kind", track.Kind)

	payload, err := a.captions.Fetch(ctx, track)
	if err != nil {
		return Result{}, acquireErr(ReasonDownloadError, err)
	}

	text, err := parseTimedText(payload)
	if err != nil {
		return Result{}, acquireErr(ReasonMalformedPayload, err)
	}
	if text == "" {
		return Result{}, acquireErr(ReasonNoTranscript, nil)
	}

	return Result{VideoID: id, Title: info.Title, Text: text, Source: SourceCaptions}, nil
}

// reasonRank orders reasons by specificity for picking which failure to
// surface when both branches fail.
var reasonRank = map[Reason]int{
	ReasonDownloadError:          0,
	ReasonNoTranscript:           1,
	ReasonDisabled:               2,
	ReasonMalformedPayload:       3,
	ReasonUnsupportedAudioFormat: 4,
	ReasonTranscriptionError:     5,
}

func mostSpecific(a, b error) error {
	if reasonRank[ReasonOf(b)] >= reasonRank[ReasonOf(a)] {
		return b
	}
	return a
}
