package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmitrymomot/formrules/pkg/fieldpath"
)

const maxResponseBody = 64 << 10

var placeholder = regexp.MustCompile(`\{([^{}\s]+)\}`)

// HTTPConfig is the default HTTP endpoint, read from FORMRULES_REMOTE_*.
type HTTPConfig struct {
	URL     string        `env:"REMOTE_URL"`                     // URL template; {value} and {field.path} placeholders are substituted.
	Method  string        `env:"REMOTE_METHOD" envDefault:"GET"`  // Method is the HTTP method.
	Timeout time.Duration `env:"REMOTE_TIMEOUT" envDefault:"10s"` // Timeout bounds one request.
}

// HTTP checks values against a JSON HTTP API.
//
// GET and HEAD requests carry the value in the URL ({value} placeholder, or a
// value query parameter). Other methods send a JSON body with rule, field,
// value and params. A 2xx response may be empty (valid), a JSON boolean, or
// an object with a "valid" or "exists" boolean. A 404 means the value was not
// found.
type HTTP struct {
	url     string
	method  string
	headers map[string]string
	client  *http.Client
	refs    []string
}

// HTTPOption configures an HTTP endpoint.
type HTTPOption func(*HTTP)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// WithHeaders adds request headers.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(h *HTTP) {
		for k, v := range headers {
			h.headers[k] = v
		}
	}
}

var methods = []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch}

// NewHTTP validates cfg and builds the endpoint.
func NewHTTP(cfg HTTPConfig, opts ...HTTPOption) (*HTTP, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidEndpointConfig)
	}
	u, err := url.Parse(placeholder.ReplaceAllString(raw, "x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpointConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: url %q must be absolute http(s)", ErrInvalidEndpointConfig, raw)
	}

	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}
	if !slices.Contains(methods, method) {
		return nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidEndpointConfig, cfg.Method)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	h := &HTTP{
		url:     raw,
		method:  method,
		headers: make(map[string]string),
		client:  &http.Client{Timeout: timeout},
	}
	for _, m := range placeholder.FindAllStringSubmatch(raw, -1) {
		if m[1] != "value" && !slices.Contains(h.refs, m[1]) {
			h.refs = append(h.refs, m[1])
		}
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Dependencies returns the field paths embedded in the URL, resolved against
// owner.
func (h *HTTP) Dependencies(owner string) []string {
	out := make([]string, 0, len(h.refs))
	for _, ref := range h.refs {
		out = append(out, fieldpath.Resolve(ref, owner))
	}
	return out
}

// String returns "METHOD url".
func (h *HTTP) String() string {
	return h.method + " " + h.url
}

// Check performs the request.
func (h *HTTP) Check(ctx context.Context, req Request) (bool, error) {
	httpReq, err := h.request(ctx, req)
	if err != nil {
		return false, transportError(h.String(), err)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return false, transportError(h.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return verdict(req.Rule, false), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, transportError(h.String(), fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return false, transportError(h.String(), err)
	}
	ok, err := decodeVerdict(req.Rule, body)
	if err != nil {
		return false, transportError(h.String(), err)
	}
	return ok, nil
}

func (h *HTTP) request(ctx context.Context, req Request) (*http.Request, error) {
	hasValue := false
	target := placeholder.ReplaceAllStringFunc(h.url, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if name == "value" {
			hasValue = true
			return url.PathEscape(text(req.Value))
		}
		if req.Form == nil {
			return ""
		}
		v, _ := req.Form.Get(fieldpath.Resolve(name, req.Path))
		return url.PathEscape(text(v))
	})

	var body io.Reader
	switch h.method {
	case http.MethodGet, http.MethodHead:
		if !hasValue {
			u, err := url.Parse(target)
			if err != nil {
				return nil, err
			}
			q := u.Query()
			q.Set("value", text(req.Value))
			u.RawQuery = q.Encode()
			target = u.String()
		}
	default:
		payload, err := json.Marshal(map[string]any{
			"rule":   req.Rule,
			"field":  req.Path,
			"value":  req.Value,
			"params": req.Params,
		})
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, h.method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range h.headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func decodeVerdict(rule string, body []byte) (bool, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return true, nil
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	switch v := decoded.(type) {
	case bool:
		return v, nil
	case map[string]any:
		if ok, isBool := v["valid"].(bool); isBool {
			return ok, nil
		}
		if found, isBool := v["exists"].(bool); isBool {
			return verdict(rule, found), nil
		}
	}
	return false, fmt.Errorf("%w: %s", ErrUnexpectedResponse, bytes.TrimSpace(body))
}

// verdict turns "the value was found" into a rule result.
func verdict(rule string, found bool) bool {
	if rule == "unique" {
		return !found
	}
	return found
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
