package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrymomot/formrules/pkg/datatree"
)

// Request describes one check sent to an endpoint.
type Request struct {
	// Rule is the rule name: exists, unique or active_url.
	Rule string
	// Path is the concrete path of the validated field.
	Path string
	// Value is the value being validated.
	Value any
	// Params holds the rule attributes (e.g. table and column).
	Params map[string]any
	// Form gives read access to the other field values.
	Form datatree.Reader
}

// Param returns Params[key] as a string.
func (r Request) Param(key string) string {
	v, ok := r.Params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

// Endpoint answers whether a value passes a network-backed rule.
// A non-nil error is a transport failure, not a validation result.
type Endpoint interface {
	Check(ctx context.Context, req Request) (bool, error)
}

// Dependent is implemented by endpoints that read other field values, so the
// owning validator can watch them.
type Dependent interface {
	Dependencies(owner string) []string
}

// Func adapts a function to Endpoint.
type Func func(ctx context.Context, req Request) (bool, error)

// Check calls f.
func (f Func) Check(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}

// Disabled is an endpoint that never calls out and accepts every value.
type Disabled struct{}

// Check always reports valid.
func (Disabled) Check(context.Context, Request) (bool, error) { return true, nil }

// FromConfig builds an endpoint from its declarative configuration:
//
//   - map[string]any{"url": "...", "method": "POST", "headers": {...}}
//   - an Endpoint or a Func / func(context.Context, Request) (bool, error)
//   - false, which disables the call (always valid)
//
// HTTP options apply only to the map form.
func FromConfig(v any, opts ...HTTPOption) (Endpoint, error) {
	switch c := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrInvalidEndpointConfig)
	case bool:
		if c {
			return nil, fmt.Errorf("%w: true is not an endpoint, use false to disable", ErrInvalidEndpointConfig)
		}
		return Disabled{}, nil
	case Endpoint:
		return c, nil
	case func(context.Context, Request) (bool, error):
		return Func(c), nil
	case string:
		return NewHTTP(HTTPConfig{URL: c}, opts...)
	case HTTPConfig:
		return NewHTTP(c, opts...)
	case map[string]any:
		return fromMap(c, opts...)
	case map[string]string:
		m := make(map[string]any, len(c))
		for k, s := range c {
			m[k] = s
		}
		return fromMap(m, opts...)
	}
	return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidEndpointConfig, v)
}

func fromMap(m map[string]any, opts ...HTTPOption) (Endpoint, error) {
	cfg := HTTPConfig{}
	url, ok := m["url"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: url must be a string", ErrInvalidEndpointConfig)
	}
	cfg.URL = url
	if raw, ok := m["method"]; ok {
		method, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: method must be a string", ErrInvalidEndpointConfig)
		}
		cfg.Method = method
	}
	if raw, ok := m["headers"]; ok {
		headers, err := stringMap(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithHeaders(headers))
	}
	return NewHTTP(cfg, opts...)
}

func stringMap(v any) (map[string]string, error) {
	switch h := v.(type) {
	case map[string]string:
		return h, nil
	case map[string]any:
		out := make(map[string]string, len(h))
		for k, val := range h {
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: header %q must be a string", ErrInvalidEndpointConfig, k)
			}
			out[k] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: headers must be an object", ErrInvalidEndpointConfig)
}
