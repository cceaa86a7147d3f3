package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

// languagePreference is the fixed caption language ordering. The first track
// matching the earliest entry wins.
var languagePreference = []string{
	"en", "ja", "ko", "de", "fr", "ru", "it", "es", "pl", "uk", "nl", "zh-TW", "zh-CN",
}

// autoGeneratedKind marks machine-generated tracks in the track metadata.
const autoGeneratedKind = "asr"

// selectTrack applies the track preference rules: first preferred language
// present; failing that, the first author-supplied (non-asr) track; failing
// that, the first track regardless of origin.
func selectTrack(tracks []CaptionTrack) (CaptionTrack, bool) {
	if len(tracks) == 0 {
		return CaptionTrack{}, false
	}

	for _, lang := range languagePreference {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}

	for _, t := range tracks {
		if t.Kind != autoGeneratedKind {
			return t, true
		}
	}

	return tracks[0], true
}

// timedText is the caption payload shape: <transcript><text ...>chunk</text>...
type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// parseTimedText concatenates all caption chunks, space-joined, preserving
// chunk order. Entities are unescaped; empty chunks are dropped.
func parseTimedText(payload []byte) (string, error) {
	var doc timedText
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return "", fmt.Errorf("parse timedtext: %w", err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		chunk := strings.TrimSpace(html.UnescapeString(t.Value))
		if chunk != "" {
			parts = append(parts, chunk)
		}
	}

	return strings.Join(parts, " "), nil
}

type httpCaptionFetcher struct {
	client *http.Client
}

// NewCaptionFetcher returns a CaptionFetcher that downloads track payloads
// over HTTP.
func NewCaptionFetcher() CaptionFetcher {
	return &httpCaptionFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *httpCaptionFetcher) Fetch(ctx context.Context, track CaptionTrack) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build caption request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch captions: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
