package schaatsen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/smartyg/competitionnotify/app/competition"
)

const maxResponseBytes = 16 << 20

// Client reads competitions from the KNSB registration API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

func NewClient(httpClient *http.Client, baseURL, userAgent string, requestsPerSecond float64) *Client {
	burst := max(1, int(requestsPerSecond))
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// FetchCompetitions returns every competition in the public list. Entries
// that fail to decode or validate are skipped.
func (c *Client) FetchCompetitions(ctx context.Context) ([]competition.Competition, error) {
	var raw []json.RawMessage
	if err := c.get(ctx, "/competitions", &raw); err != nil {
		return nil, err
	}

	competitions := make([]competition.Competition, 0, len(raw))
	for i, entry := range raw {
		var comp competition.Competition
		if err := json.Unmarshal(entry, &comp); err != nil {
			slog.Warn("Skipping undecodable competition", "index", i, "error", err)
			continue
		}
		if err := comp.Validate(); err != nil {
			slog.Warn("Skipping invalid competition", "index", i, "error", err)
			continue
		}
		competitions = append(competitions, comp)
	}

	slog.Debug("Competitions fetched", "total", len(raw), "valid", len(competitions))
	return competitions, nil
}

// FetchDetail retrieves the competition, its distance combinations and the
// combination settings concurrently. Any failure fails the whole detail.
func (c *Client) FetchDetail(ctx context.Context, id uuid.UUID) (*competition.Detail, error) {
	var detail competition.Detail
	base := "/competitions/" + id.String()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, base, &detail.Competition)
	})
	g.Go(func() error {
		return c.get(gctx, base+"/distancecombinations", &detail.Combinations)
	})
	g.Go(func() error {
		return c.get(gctx, base+"/settings/distancecombinations", &detail.Settings)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if detail.Competition.ID != id {
		return nil, fmt.Errorf("%w: detail for %s returned competition %s", competition.ErrFetch, id, detail.Competition.ID)
	}
	if err := detail.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", competition.ErrFetch, err)
	}

	return &detail, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", competition.ErrFetch, err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", competition.ErrFetch, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", competition.ErrFetch, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: HTTP error: %d %s", competition.ErrFetch, path, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %s: failed to read response body: %w", competition.ErrFetch, path, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: failed to decode response: %w", competition.ErrFetch, path, err)
	}

	return nil
}
