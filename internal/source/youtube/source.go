// Package youtube is the remote catalog client: it resolves channel
// identities and yields raw upload records via the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mediasync/internal/domain"
)

const (
	// Platform tags the links produced from this catalog.
	Platform = "YouTube"

	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// pageSize is the API maximum for playlistItems.
	pageSize = 50
)

// Config holds YouTube client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source implements the service.Source collaborator against the YouTube API.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a YouTube catalog client.
func New(cfg Config, logger *slog.Logger) *Source {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", "youtube"),
	}
}

// Platform returns the platform tag for links built from this source.
func (s *Source) Platform() string {
	return Platform
}

// ResolveChannelID looks up a channel's external id from its display name or
// handle. It tries the legacy username lookup first, then falls back to
// search, preferring an exact title match over the first result.
func (s *Source) ResolveChannelID(ctx context.Context, name string) (string, error) {
	var channels channelListResponse
	err := s.getJSON(ctx, s.endpoint("channels", url.Values{
		"part":        {"id"},
		"forUsername": {name},
	}), &channels)
	if err != nil {
		return "", fmt.Errorf("lookup username: %w", err)
	}
	if len(channels.Items) > 0 {
		return channels.Items[0].ID, nil
	}

	s.logger.Debug("channel not found by username, searching", "name", name)

	var results searchListResponse
	err = s.getJSON(ctx, s.endpoint("search", url.Values{
		"part": {"snippet"},
		"q":    {name},
		"type": {"channel"},
	}), &results)
	if err != nil {
		return "", fmt.Errorf("search channel: %w", err)
	}
	if len(results.Items) == 0 {
		return "", fmt.Errorf("channel %q not found", name)
	}

	lower := strings.ToLower(name)
	for _, item := range results.Items {
		if strings.ToLower(item.Snippet.Title) == lower ||
			strings.Contains(strings.ToLower(item.Snippet.ChannelTitle), lower) {
			return item.Snippet.ChannelID, nil
		}
	}
	return results.Items[0].Snippet.ChannelID, nil
}

// FetchItems yields every upload of a channel as raw item records, newest
// pages first, walking the uploads playlist page by page. When a page fetch
// fails mid-pagination the records accumulated so far are returned alongside
// the error so the caller can reconcile partial results.
func (s *Source) FetchItems(ctx context.Context, externalID string) ([]domain.RawItem, error) {
	uploads, err := s.uploadsPlaylistID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	var items []domain.RawItem
	pageToken := ""
	for page := 0; ; page++ {
		query := url.Values{
			"part":       {"snippet"},
			"maxResults": {fmt.Sprintf("%d", pageSize)},
			"playlistId": {uploads},
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var playlist playlistItemsResponse
		if err := s.getJSON(ctx, s.endpoint("playlistItems", query), &playlist); err != nil {
			return items, fmt.Errorf("fetch page %d: %w", page, err)
		}

		ids := make([]string, 0, len(playlist.Items))
		for _, entry := range playlist.Items {
			if id := entry.Snippet.ResourceID.VideoID; id != "" {
				ids = append(ids, id)
			}
		}

		details, err := s.videoDetails(ctx, ids)
		if err != nil {
			return items, fmt.Errorf("fetch details page %d: %w", page, err)
		}
		items = append(items, details...)

		s.logger.Debug("fetched page",
			"page", page,
			"videos", len(ids),
			"total", len(items),
		)

		pageToken = playlist.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return items, nil
}

func (s *Source) uploadsPlaylistID(ctx context.Context, externalID string) (string, error) {
	var channels channelListResponse
	err := s.getJSON(ctx, s.endpoint("channels", url.Values{
		"part": {"contentDetails"},
		"id":   {externalID},
	}), &channels)
	if err != nil {
		return "", fmt.Errorf("fetch channel: %w", err)
	}
	if len(channels.Items) == 0 {
		return "", fmt.Errorf("no channel with id %s", externalID)
	}
	uploads := channels.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", fmt.Errorf("channel %s has no uploads playlist", externalID)
	}
	return uploads, nil
}

func (s *Source) videoDetails(ctx context.Context, ids []string) ([]domain.RawItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var videos videoListResponse
	err := s.getJSON(ctx, s.endpoint("videos", url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {strings.Join(ids, ",")},
	}), &videos)
	if err != nil {
		return nil, err
	}

	items := make([]domain.RawItem, 0, len(videos.Items))
	for _, v := range videos.Items {
		publishedAt, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt)
		if err != nil {
			s.logger.Warn("unparseable publish timestamp",
				"video_id", v.ID,
				"published_at", v.Snippet.PublishedAt,
			)
			// left zero so normalization rejects the record
		}

		items = append(items, domain.RawItem{
			ID:          v.ID,
			Title:       v.Snippet.Title,
			Description: v.Snippet.Description,
			PublishedAt: publishedAt,
			DurationISO: v.ContentDetails.Duration,
			Thumbnails: domain.Thumbnails{
				Default:  v.Snippet.Thumbnails["default"].URL,
				Medium:   v.Snippet.Thumbnails["medium"].URL,
				High:     v.Snippet.Thumbnails["high"].URL,
				Standard: v.Snippet.Thumbnails["standard"].URL,
				Maxres:   v.Snippet.Thumbnails["maxres"].URL,
			},
			Platform: Platform,
			WatchURL: "https://www.youtube.com/watch?v=" + v.ID,
		})
	}
	return items, nil
}

func (s *Source) endpoint(path string, query url.Values) string {
	query.Set("key", s.apiKey)
	return s.baseURL + "/" + path + "?" + query.Encode()
}

func (s *Source) getJSON(ctx context.Context, requestURL string, v interface{}) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.doRequest(ctx, requestURL, v)
		if err == nil {
			return nil
		}
		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, requestURL string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "MediaSync/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}
