package refresh

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPProber validates a link with a short-timeout GET. Status codes in
// the error range count as dead, as does any transport failure; an HTTP
// status is only a proxy for "posting still listed", so the policy lives
// behind the Prober interface where tests can replace it.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

func NewHTTPProber(timeout time.Duration, userAgent string) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

func (p *HTTPProber) Check(ctx context.Context, link string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("probe %s: status %d", link, resp.StatusCode)
	}
	return nil
}
