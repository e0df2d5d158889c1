// Package external provides clients for the consumed third-party services:
// Wikipedia portrait lookup and OpenRouter text generation.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/pitchside/dreamteam/internal/cache"
	"github.com/pitchside/dreamteam/internal/metrics"
)

// Lookup defaults. The flaticon silhouette is what renders when no
// portrait can be resolved.
const (
	DefaultWikipediaBaseURL = "https://en.wikipedia.org/w/api.php"
	DefaultPortraitImage    = "https://cdn-icons-png.flaticon.com/512/3673/3673323.png"

	wikipediaTimeout     = 10 * time.Second
	wikipediaUserAgent   = "DreamTeamBot/1.0 (Contact: dreamteam@example.com)"
	thumbnailSize        = 200
	defaultWikiPerMinute = 30
)

// Overrides supplies locally curated portrait URLs, checked before any
// lookup or cache read.
type Overrides interface {
	PortraitOverride(name string) (string, bool)
}

// WikipediaConfig configures the portrait lookup client.
type WikipediaConfig struct {
	BaseURL           string // MediaWiki api.php endpoint
	DefaultImageURL   string // returned whenever no thumbnail resolves
	RequestsPerMinute int
}

// WikipediaService resolves player portrait thumbnails through the public
// MediaWiki API: a full-text search for "{name} footballer", then a
// pageimages thumbnail lookup on the top hit.
type WikipediaService struct {
	httpClient *http.Client
	baseURL    string
	defaultURL string
	overrides  Overrides
	store      cache.PortraitStore
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewWikipediaService creates a rate-limited portrait client. Zero-value
// config fields fall back to the package defaults. overrides may be nil;
// store must not be.
func NewWikipediaService(cfg WikipediaConfig, overrides Overrides, store cache.PortraitStore, logger *slog.Logger) *WikipediaService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWikipediaBaseURL
	}
	if cfg.DefaultImageURL == "" {
		cfg.DefaultImageURL = DefaultPortraitImage
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultWikiPerMinute
	}
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(cfg.RequestsPerMinute) / 60.0
	return &WikipediaService{
		httpClient: &http.Client{Timeout: wikipediaTimeout},
		baseURL:    cfg.BaseURL,
		defaultURL: cfg.DefaultImageURL,
		overrides:  overrides,
		store:      store,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// DefaultImageURL returns the fallback portrait URL.
func (s *WikipediaService) DefaultImageURL() string { return s.defaultURL }

// PortraitURL resolves the portrait thumbnail for a player name. Empty
// names, searches with no results, and failed lookups all yield the
// default image URL. Swallowing lookup failures is the contract here:
// the caller always receives a renderable URL, never an error.
func (s *WikipediaService) PortraitURL(ctx context.Context, name string) string {
	if name == "" {
		metrics.RecordPortraitLookup("default")
		return s.defaultURL
	}
	if s.overrides != nil {
		if u, ok := s.overrides.PortraitOverride(name); ok {
			metrics.RecordPortraitLookup("override")
			return u
		}
	}
	if u, ok := s.store.GetURL(ctx, name); ok {
		metrics.RecordPortraitLookup("cache")
		return u
	}

	u, cacheable := s.lookup(ctx, name)
	if cacheable {
		s.store.SetURL(ctx, name, u, cache.TTLPortrait)
	}
	if u == s.defaultURL {
		metrics.RecordPortraitLookup("default")
	} else {
		metrics.RecordPortraitLookup("wikipedia")
	}
	return u
}

// InvalidatePortrait drops the cached URL for a name. Called when a local
// override changes what the name should resolve to.
func (s *WikipediaService) InvalidatePortrait(ctx context.Context, name string) {
	s.store.Invalidate(ctx, name)
}

// lookup performs the two-step search. The second return reports whether
// the outcome is deterministic and safe to cache; transport failures are
// not, so a transient outage does not pin the default image for an hour.
func (s *WikipediaService) lookup(ctx context.Context, name string) (string, bool) {
	title, err := s.searchTitle(ctx, name)
	if err != nil {
		s.logger.Warn("Portrait search failed", "player", name, "error", err)
		return s.defaultURL, false
	}
	if title == "" {
		return s.defaultURL, true
	}

	thumb, err := s.thumbnail(ctx, title)
	if err != nil {
		s.logger.Warn("Portrait thumbnail fetch failed", "player", name, "title", title, "error", err)
		return s.defaultURL, false
	}
	if thumb == "" {
		return s.defaultURL, true
	}
	return thumb, true
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// searchTitle returns the top full-text search hit for the player, or ""
// when the search has no results.
func (s *WikipediaService) searchTitle(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", name+" footballer")
	params.Set("format", "json")

	var out searchResponse
	if err := s.get(ctx, params, &out); err != nil {
		return "", err
	}
	if len(out.Query.Search) == 0 {
		return "", nil
	}
	return out.Query.Search[0].Title, nil
}

type imageResponse struct {
	Query struct {
		Pages map[string]struct {
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// thumbnail returns the page's thumbnail URL, or "" when the page carries
// no image.
func (s *WikipediaService) thumbnail(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("titles", title)
	params.Set("prop", "pageimages")
	params.Set("pithumbsize", strconv.Itoa(thumbnailSize))
	params.Set("pilicense", "any")

	var out imageResponse
	if err := s.get(ctx, params, &out); err != nil {
		return "", err
	}
	for _, page := range out.Query.Pages {
		if page.Thumbnail != nil && page.Thumbnail.Source != "" {
			return page.Thumbnail.Source, nil
		}
	}
	return "", nil
}

// get performs a rate-limited GET against the MediaWiki endpoint.
func (s *WikipediaService) get(ctx context.Context, params url.Values, dst interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", wikipediaUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia returned %d: %s", resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Status returns client configuration for the health endpoint.
func (s *WikipediaService) Status() map[string]interface{} {
	return map[string]interface{}{
		"base_url":      s.baseURL,
		"default_image": s.defaultURL,
		"cache_backend": s.store.Backend(),
	}
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
