package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"tigercity/internal/protocol"
)

var endpointPaths = map[Kind]string{
	KindCity:    "/city",
	KindOrders:  "/orders",
	KindWeather: "/weather",
}

// HTTPProvider fetches payloads from the fixture API. Responses may arrive
// bare or wrapped in a {"data": ...} envelope.
type HTTPProvider struct {
	base   string
	client *http.Client
}

func NewHTTPProvider(base string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Fetch(ctx context.Context, kind Kind) ([]byte, error) {
	path, ok := endpointPaths[kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", kind, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}
	return protocol.Unwrap(raw), nil
}
