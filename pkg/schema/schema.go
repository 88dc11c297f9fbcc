package schema

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formrules/pkg/form"
	"github.com/dmitrymomot/formrules/pkg/validator"
)

// Format is a definition encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Schema is a declarative form definition.
type Schema struct {
	Locale    string                      `yaml:"locale" json:"locale"`
	Debounce  *float64                    `yaml:"debounce" json:"debounce"`
	Endpoints map[string]any              `yaml:"endpoints" json:"endpoints"`
	Fields    map[string]Field            `yaml:"fields" json:"fields"`
	Lists     map[string]map[string]Field `yaml:"lists" json:"lists"`
}

// Field is one field definition. Debounce is in milliseconds.
type Field struct {
	Rules    []any             `yaml:"rules" json:"rules"`
	When     any               `yaml:"when" json:"when"`
	Label    string            `yaml:"label" json:"label"`
	Messages map[string]string `yaml:"messages" json:"messages"`
	Debounce *float64          `yaml:"debounce" json:"debounce"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Parse decodes a definition.
func Parse(data []byte, format Format) (*Schema, error) {
	var s Schema
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, errors.Join(ErrFailedToParse, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, errors.Join(ErrFailedToParse, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and decodes a definition from r.
func Load(r io.Reader, format Format) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(ErrFailedToParse, err)
	}
	return Parse(data, format)
}

// LoadFile reads a definition file; the format follows the extension.
func LoadFile(path string) (*Schema, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToReadFile, err)
	}
	return Parse(data, format)
}

func (s *Schema) check() error {
	var errs []error
	if s.Debounce != nil && *s.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: schema default", ErrInvalidDebounce))
	}
	for path, f := range s.allFields() {
		if f.Debounce != nil && *f.Debounce < 0 {
			errs = append(errs, fmt.Errorf("%w: field %q", ErrInvalidDebounce, path))
		}
	}
	return errors.Join(errs...)
}

// allFields yields plain fields by path and list template fields as
// "list.*.key".
func (s *Schema) allFields() map[string]Field {
	out := maps.Clone(s.Fields)
	if out == nil {
		out = make(map[string]Field)
	}
	for list, template := range s.Lists {
		for key, f := range template {
			out[list+".*."+key] = f
		}
	}
	return out
}

// Options returns the form options the definition implies: locale, default
// debounce and endpoints.
func (s *Schema) Options() []form.Option {
	var opts []form.Option
	if s.Locale != "" {
		opts = append(opts, form.WithLocale(s.Locale))
	}

	var vopts []validator.Option
	if s.Debounce != nil {
		vopts = append(vopts, validator.WithDebounce(millis(*s.Debounce)))
	}
	for _, rule := range slices.Sorted(maps.Keys(s.Endpoints)) {
		vopts = append(vopts, validator.WithEndpoint(rule, s.Endpoints[rule]))
	}
	if len(vopts) > 0 {
		opts = append(opts, form.WithValidatorOptions(vopts...))
	}
	return opts
}

// Apply registers every field and list on f. All problems are returned
// joined; fields without problems are registered regardless.
func (s *Schema) Apply(f *form.Form) error {
	var errs []error
	for _, path := range slices.Sorted(maps.Keys(s.Fields)) {
		if err := f.AddField(path, s.Fields[path].formField()); err != nil {
			errs = append(errs, err)
		}
	}
	for _, list := range slices.Sorted(maps.Keys(s.Lists)) {
		template := make(map[string]form.Field, len(s.Lists[list]))
		for key, fd := range s.Lists[list] {
			template[key] = fd.formField()
		}
		if err := f.AddList(list, template); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewForm creates a form over data configured by the definition. opts are
// applied after the definition's own options.
func (s *Schema) NewForm(data map[string]any, opts ...form.Option) (*form.Form, error) {
	f := form.New(data, append(s.Options(), opts...)...)
	if err := s.Apply(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (d Field) formField() form.Field {
	out := form.Field{
		Rules:    d.Rules,
		When:     d.When,
		Label:    d.Label,
		Messages: d.Messages,
	}
	if d.Debounce != nil {
		window := millis(*d.Debounce)
		out.Debounce = &window
	}
	return out
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
