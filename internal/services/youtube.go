package services

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	urlpkg "net/url"
	"regexp"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"studymate-backend/internal/models"
)

var (
	ErrInvalidVideoURL       = errors.New("not a recognizable YouTube URL")
	ErrTranscriptUnavailable = errors.New("no transcript is available for this video")
)

var (
	transcriptLanguages = []string{"en", "en-US", "en-GB"}
	videoIDPatterns     = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/(?:embed|shorts|v)/([a-zA-Z0-9_-]{11})`),
	}
	captionTracksPattern   = regexp.MustCompile(`"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	captionRendererPattern = regexp.MustCompile(`"playerCaptionsTracklistRenderer"\s*:\s*\{(?:.*?,)?\s*"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	captionBaseURLPattern  = regexp.MustCompile(`"baseUrl"\s*:\s*"(.*?)"`)
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type YouTubeService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
	log           *zap.Logger
}

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

func NewYouTubeService(log *zap.Logger) *YouTubeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &YouTubeService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
		log:           log,
	}
}

// ExtractVideoID returns the 11-character video ID of a watch, short link,
// embed or shorts URL, or "" if none is found.
func ExtractVideoID(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if parsed, err := urlpkg.Parse(rawURL); err == nil {
		host := strings.ToLower(parsed.Host)
		if strings.HasSuffix(host, "youtube.com") {
			if v := parsed.Query().Get("v"); isVideoID(v) {
				return v
			}
		}
		if host == "youtu.be" || host == "www.youtu.be" {
			if candidate := strings.Split(strings.Trim(parsed.Path, "/"), "/")[0]; isVideoID(candidate) {
				return candidate
			}
		}
	}

	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

func isVideoID(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}

// FetchTranscript resolves the video, its metadata and its caption text.
// Metadata is best effort; a missing transcript is an error.
func (s *YouTubeService) FetchTranscript(ctx context.Context, videoURL string) (*models.VideoTranscript, error) {
	videoID := ExtractVideoID(videoURL)
	if videoID == "" {
		return nil, ErrInvalidVideoURL
	}

	result := &models.VideoTranscript{
		VideoID:  videoID,
		URL:      "https://www.youtube.com/watch?v=" + videoID,
		EmbedURL: EmbedURL(videoID),
	}

	if video, err := s.ytClient.GetVideoContext(ctx, videoID); err != nil {
		s.log.Warn("video metadata unavailable", zap.String("video_id", videoID), zap.Error(err))
	} else {
		result.Title = video.Title
		result.Author = video.Author
		result.DurationSec = int(video.Duration.Seconds())
	}

	transcript, err := s.GetTranscript(ctx, videoID)
	if err != nil {
		return result, err
	}
	result.Transcript = transcript
	result.HasTranscript = true
	return result, nil
}

// GetTranscript fetches the captions of a video as plain text.
func (s *YouTubeService) GetTranscript(ctx context.Context, videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, transcriptLanguages)
	if err != nil {
		// Fallback: request any available language
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			text, legacyErr := s.getTranscriptViaTimedText(ctx, videoID)
			if legacyErr == nil {
				return text, nil
			}
			s.log.Warn("transcript lookup failed",
				zap.String("video_id", videoID),
				zap.NamedError("api_error", err),
				zap.NamedError("timedtext_error", legacyErr))
			return "", fmt.Errorf("%w: %v", ErrTranscriptUnavailable, legacyErr)
		}
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(html.UnescapeString(entry.Text))
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", fmt.Errorf("%w: subtitle track is empty", ErrTranscriptUnavailable)
	}
	return cleaned, nil
}

func (s *YouTubeService) getTranscriptViaTimedText(ctx context.Context, videoID string) (string, error) {
	pageHTML, err := s.fetch(ctx, "https://www.youtube.com/watch?v="+videoID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	s.log.Debug("timedtext fallback page fetched", zap.String("video_id", videoID), zap.Int("bytes", len(pageHTML)))

	captionURL, err := extractCaptionURL(string(pageHTML))
	if err != nil {
		return "", err
	}

	captionBody, err := s.fetch(ctx, captionURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}

	transcript, err := parseCaptionsXML(captionBody)
	if err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}
	return transcript, nil
}

func (s *YouTubeService) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func extractCaptionURL(pageHTML string) (string, error) {
	matches := captionTracksPattern.FindStringSubmatch(pageHTML)
	if len(matches) < 2 {
		matches = captionRendererPattern.FindStringSubmatch(pageHTML)
		if len(matches) < 2 {
			return "", fmt.Errorf("no captions available for this video")
		}
	}

	urlMatches := captionBaseURLPattern.FindStringSubmatch(matches[1])
	if len(urlMatches) < 2 {
		return "", fmt.Errorf("caption track found but baseUrl missing")
	}

	u := strings.ReplaceAll(urlMatches[1], `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")
	return u, nil
}

func parseCaptionsXML(data []byte) (string, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Text))
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("captions XML empty")
	}
	return strings.Join(parts, " "), nil
}
