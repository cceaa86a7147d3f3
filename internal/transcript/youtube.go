package transcript

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var (
	videoIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/|/embed/|/shorts/|/live/)([A-Za-z0-9_-]+)`)
	bareVideoID    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ExtractVideoID resolves a user-supplied link to exactly one canonical video
// id. References with no extractable id fail here, before any network call.
func ExtractVideoID(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", fmt.Errorf("empty video reference")
	}
	if bareVideoID.MatchString(raw) {
		return raw, nil
	}
	if m := videoIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("no video id in %q", raw)
}

// YouTubeService is the production VideoService backed by the youtube client.
type YouTubeService struct {
	client youtube.Client
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{}
}

func (s *YouTubeService) Video(ctx context.Context, videoID string) (*VideoInfo, error) {
	v, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", videoID, err)
	}

	tracks := make([]CaptionTrack, 0, len(v.CaptionTracks))
	for _, t := range v.CaptionTracks {
		tracks = append(tracks, CaptionTrack{
			LanguageCode: t.LanguageCode,
			Name:         t.Name.SimpleText,
			Kind:         t.Kind,
			BaseURL:      t.BaseURL,
		})
	}

	return &VideoInfo{
		ID:            v.ID,
		Title:         v.Title,
		CaptionTracks: tracks,
	}, nil
}

func (s *YouTubeService) AudioStream(ctx context.Context, videoID string) (io.ReadCloser, string, error) {
	v, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, "", fmt.Errorf("get video %s: %w", videoID, err)
	}

	formats := v.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, "", fmt.Errorf("video %s has no audio formats", videoID)
	}

	best := formats[0]
	for _, f := range formats[1:] {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	stream, _, err := s.client.GetStreamContext(ctx, v, &best)
	if err != nil {
		return nil, "", fmt.Errorf("open stream for %s: %w", videoID, err)
	}

	return stream, extensionFor(best.MimeType), nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "audio/mp4"):
		return ".m4a"
	case strings.HasPrefix(mimeType, "audio/webm"):
		return ".webm"
	case strings.HasPrefix(mimeType, "audio/mpeg"):
		return ".mp3"
	default:
		return ".webm"
	}
}
