package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rank-drop-alerts/internal/catalog"
	"rank-drop-alerts/internal/storage"
)

const searchPath = "/exactmatch/ru/common/v13/search"

// SearchOptions parameterise the marketplace search fetcher.
type SearchOptions struct {
	BaseURL   string
	Phrases   []string
	MaxPages  int
	Brand     string
	Dest      string
	Timeout   time.Duration
	UserAgent string
}

// Search polls the marketplace search endpoint for tracked card positions.
type Search struct {
	opts    SearchOptions
	catalog *catalog.Catalog
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewSearch constructs a search fetcher.
func NewSearch(opts SearchOptions, cat *catalog.Catalog, logger zerolog.Logger) *Search {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://search.wb.ru"
	}

	if opts.MaxPages <= 0 {
		opts.MaxPages = 3
	}

	return &Search{
		opts:    opts,
		catalog: cat,
		logger:  logger.With().Str("component", "search_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchAll walks every phrase and page and collects brand-matched
// observations. A failed page is logged and skipped; it never aborts the
// cycle. All observations share one minute-truncated timestamp.
func (s *Search) FetchAll(ctx context.Context, at time.Time) []storage.Observation {
	observedAt := at.Truncate(time.Minute)

	batch := make([]storage.Observation, 0)
	for _, phrase := range s.opts.Phrases {
		for page := 1; page <= s.opts.MaxPages; page++ {
			if ctx.Err() != nil {
				return batch
			}

			cards, err := s.fetchPage(ctx, phrase, page)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("phrase", phrase).
					Int("page", page).
					Msg("page skipped")
				continue
			}

			for _, card := range cards {
				if card.Log == nil || card.Brand != s.opts.Brand {
					continue
				}
				batch = append(batch, storage.Observation{
					Position:      card.Log.Position,
					PromoPosition: card.Log.PromoPosition,
					ObservedAt:    observedAt,
					Phrase:        phrase,
					SKU:           s.catalog.Resolve(card.ID),
				})
			}
		}
	}

	s.logger.Info().Int("matched", len(batch)).Time("observed_at", observedAt).Msg("fetch cycle complete")
	return batch
}

func (s *Search) fetchPage(ctx context.Context, phrase string, page int) ([]productCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL(phrase, page), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(s.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search api status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search payload: %w", err)
	}

	return payload.Data.Products, nil
}

func (s *Search) pageURL(phrase string, page int) string {
	dest := s.opts.Dest
	if dest == "" {
		dest = "-1257484"
	}

	params := url.Values{}
	params.Set("ab_testing", "false")
	params.Set("appType", "1")
	params.Set("curr", "rub")
	params.Set("dest", dest)
	params.Set("hide_dtype", "13")
	params.Set("lang", "ru")
	params.Set("page", strconv.Itoa(page))
	params.Set("query", phrase)
	params.Set("resultset", "catalog")
	params.Set("sort", "popular")
	params.Set("spp", "30")
	params.Set("suppressSpellcheck", "false")

	return s.baseURL + searchPath + "?" + params.Encode()
}

type searchResponse struct {
	Data struct {
		Products []productCard `json:"products"`
	} `json:"data"`
}

type productCard struct {
	ID    int64     `json:"id"`
	Brand string    `json:"brand"`
	Log   *rankData `json:"log"`
}

type rankData struct {
	Position      int `json:"position"`
	PromoPosition int `json:"promoPosition"`
}

var _ RankFetcher = (*Search)(nil)
