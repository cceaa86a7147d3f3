package transcript

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Recognizer turns a local audio file into text.
type Recognizer interface {
	Recognize(ctx context.Context, audioPath string) (string, error)
}

// AudioFallback implements the second acquisition strategy: download the
// best-available audio stream to a transient file, transcode it to a canonical
// wave format, and run speech-to-text. Both files are owned exclusively by the
// in-flight acquisition and removed on every exit path.
type AudioFallback struct {
	videos     VideoService
	runner     CommandRunner
	recognizer Recognizer
	tempDir    string
}

func NewAudioFallback(videos VideoService, runner CommandRunner, recognizer Recognizer, tempDir string) *AudioFallback {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &AudioFallback{
		videos:     videos,
		runner:     runner,
		recognizer: recognizer,
		tempDir:    tempDir,
	}
}

func (f *AudioFallback) Transcribe(ctx context.Context, videoID string) (string, error) {
	rawPath, err := f.download(ctx, videoID)
	if err != nil {
		return "", acquireErr(ReasonDownloadError, err)
	}
	defer removeQuietly(ctx, rawPath)

	wavPath := strings.TrimSuffix(rawPath, ext(rawPath)) + ".wav"
	defer removeQuietly(ctx, wavPath)

	if err := f.runner.Run(ctx, "ffmpeg",
		"-y", "-i", rawPath, "-ar", "16000", "-ac", "1", wavPath); err != nil {
		return "", acquireErr(ReasonUnsupportedAudioFormat, err)
	}

	text, err := f.recognizer.Recognize(ctx, wavPath)
	if err != nil {
		if _, ok := err.(*AcquireError); ok {
			return "", err
		}
		return "", acquireErr(ReasonTranscriptionError, err)
	}
	if text == "" {
		return "", acquireErr(ReasonTranscriptionError, fmt.Errorf("recognizer returned no text"))
	}

	return text, nil
}

// download streams the audio into a transient file in tempDir and returns its
// path. The partial file is removed when the copy fails.
func (f *AudioFallback) download(ctx context.Context, videoID string) (string, error) {
	stream, streamExt, err := f.videos.AudioStream(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("open audio stream: %w", err)
	}
	defer stream.Close()

	tmp, err := os.CreateTemp(f.tempDir, "tubescribe-*"+streamExt)
	if err != nil {
		return "", fmt.Errorf("create temp audio file: %w", err)
	}

	if _, err := io.Copy(tmp, stream); err != nil {
		tmp.Close()
		removeQuietly(ctx, tmp.Name())
		return "", fmt.Errorf("save audio stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		removeQuietly(ctx, tmp.Name())
		return "", fmt.Errorf("close temp audio file: %w", err)
	}

	return tmp.Name(), nil
}

func removeQuietly(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.WarnContext(ctx, "failed to remove transient audio file",
			"path", path,
			"error", err)
	}
}

func ext(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}
