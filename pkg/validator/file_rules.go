package validator

import (
	"fmt"
	"math"
	"strings"

	"github.com/dmitrymomot/formrules/pkg/file"
	"github.com/dmitrymomot/formrules/pkg/rule"
)

// imageTypes are the types the image rule accepts.
var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/bmp", "image/svg+xml", "image/webp"}

func fileRules() map[string]Definition {
	return map[string]Definition{
		"file": {New: fixed(func(in Input) bool {
			f, ok := file.As(in.Value)
			return ok && f != nil && f.Name != ""
		}), Nullable: true},
		"image": {New: fixed(func(in Input) bool {
			f, ok := file.As(in.Value)
			return ok && f.MatchMIME(imageTypes...)
		}), Nullable: true},
		"mimes":      {New: fileMatch(func(f *file.File, v ...string) bool { return f.MatchExtension(v...) }), Nullable: true, Args: 1},
		"mimetypes":  {New: fileMatch(func(f *file.File, v ...string) bool { return f.MatchMIME(v...) }), Nullable: true, Args: 1},
		"dimensions": {New: dimensions, Nullable: true},
	}
}

func fileMatch(match func(f *file.File, values ...string) bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, _ Env) (Rule, error) {
		values := spec.Strings()
		return &check{
			fn: func(in Input) bool {
				f, ok := file.As(in.Value)
				return ok && f != nil && match(f, values...)
			},
			params: func(Input) map[string]any { return map[string]any{"values": values} },
		}, nil
	}
}

// dimensions reads named constraints: width, height, min_width, max_width,
// min_height, max_height and ratio (a number or "w/h").
func dimensions(spec rule.Spec, _ Env) (Rule, error) {
	limits := make(map[string]float64)
	ratio := 0.0
	for _, a := range spec.Attributes {
		if !a.Named {
			continue
		}
		switch a.Key {
		case "width", "height", "min_width", "max_width", "min_height", "max_height":
			n, ok := a.Value.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidAttribute, a.Key)
			}
			limits[a.Key] = n
		case "ratio":
			r, err := parseRatio(a.Value)
			if err != nil {
				return nil, err
			}
			ratio = r
		default:
			return nil, fmt.Errorf("%w: unknown dimension constraint %q", ErrInvalidAttribute, a.Key)
		}
	}

	return &check{
		fn: func(in Input) bool {
			f, ok := file.As(in.Value)
			if !ok {
				return false
			}
			w, h, err := f.Dimensions()
			if err != nil {
				return false
			}
			width, height := float64(w), float64(h)
			for key, limit := range limits {
				var pass bool
				switch key {
				case "width":
					pass = width == limit
				case "height":
					pass = height == limit
				case "min_width":
					pass = width >= limit
				case "max_width":
					pass = width <= limit
				case "min_height":
					pass = height >= limit
				case "max_height":
					pass = height <= limit
				}
				if !pass {
					return false
				}
			}
			if ratio > 0 && (height == 0 || math.Abs(width/height-ratio) > 1.0/(math.Min(width, height)+1)) {
				return false
			}
			return true
		},
		params: func(Input) map[string]any {
			out := make(map[string]any, len(limits))
			for k, v := range limits {
				out[k] = v
			}
			return out
		},
	}, nil
}

func parseRatio(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		if x > 0 {
			return x, nil
		}
	case string:
		w, h, ok := strings.Cut(x, "/")
		if ok {
			var num, den float64
			if _, err := fmt.Sscan(w, &num); err == nil {
				if _, err := fmt.Sscan(h, &den); err == nil && num > 0 && den > 0 {
					return num / den, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("%w: invalid ratio %v", ErrInvalidAttribute, v)
}
