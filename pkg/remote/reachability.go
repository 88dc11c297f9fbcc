package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Reachability backs active_url: the value itself is the URL and it is valid
// when a HEAD request (GET when HEAD is refused) answers below 400.
// Network failures mean "not reachable" and are not transport errors.
type Reachability struct {
	client *http.Client
}

// NewReachability returns a reachability endpoint. A zero timeout uses 10s.
func NewReachability(timeout time.Duration, opts ...HTTPOption) *Reachability {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	h := &HTTP{client: &http.Client{Timeout: timeout}, headers: map[string]string{}}
	for _, opt := range opts {
		opt(h)
	}
	return &Reachability{client: h.client}
}

// Check probes the URL in req.Value.
func (r *Reachability) Check(ctx context.Context, req Request) (bool, error) {
	raw := strings.TrimSpace(text(req.Value))
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false, nil
	}

	status, err := r.probe(ctx, http.MethodHead, u.String())
	if err != nil {
		// Context expiry belongs to the caller, report it.
		if ctx.Err() != nil {
			return false, transportError("active_url", ctx.Err())
		}
		return false, nil
	}
	if status == http.StatusMethodNotAllowed {
		if status, err = r.probe(ctx, http.MethodGet, u.String()); err != nil {
			return false, nil
		}
	}
	return status < 400, nil
}

func (r *Reachability) probe(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
