package dataset

import (
	"context"
	"fmt"
	"net/http"
	"time"

	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

// HTTPSource descarga el dataset publicado como documento JSON estático.
type HTTPSource struct {
	url    string
	client *http.Client
}

var _ skiDomain.DatasetSource = (*HTTPSource)(nil)

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]skiDomain.SkiPass, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dataset %s: unexpected status %d", s.url, resp.StatusCode)
	}
	return decodeRecords(resp.Body)
}
