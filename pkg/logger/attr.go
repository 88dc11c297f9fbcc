package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under the key "error".
// A nil error yields an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under the key "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Component records the emitting engine component under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Field records a concrete field path under the key "field".
func Field(path string) slog.Attr {
	return slog.String("field", path)
}

// Rule records a rule name under the key "rule".
func Rule(name string) slog.Attr {
	return slog.String("rule", name)
}

// Operator records a comparison operator under the key "operator".
func Operator(op string) slog.Attr {
	return slog.String("operator", op)
}

// Source records the watched path of a dependency under the key "source".
func Source(path string) slog.Attr {
	return slog.String("source", path)
}

// Locale records a message locale under the key "locale".
func Locale(locale string) slog.Attr {
	return slog.String("locale", locale)
}

// Duration records d under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
