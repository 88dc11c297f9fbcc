package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/condition"
	"github.com/dmitrymomot/formrules/pkg/datatree"
	"github.com/dmitrymomot/formrules/pkg/i18n"
	"github.com/dmitrymomot/formrules/pkg/logger"
	"github.com/dmitrymomot/formrules/pkg/remote"
	"github.com/dmitrymomot/formrules/pkg/rule"
)

const (
	debounceAttr          = "debounce"
	defaultActiveURLProbe = 10 * time.Second
	customRuleName        = "custom"
)

// Factory turns rule lists into validators bound to one form.
type Factory struct {
	form       datatree.Reader
	registry   *Registry
	extra      map[string]Definition
	cmp        *compare.Comparator
	eval       *condition.Evaluator
	debounce   time.Duration
	clock      clock.WithDelayedExecution
	log        *slog.Logger
	messages   Messages
	locale     string
	onError    ErrorHandler
	dateFormat string

	mu              sync.Mutex
	endpointConfigs map[string]any
	endpoints       map[string]remote.Endpoint
}

// NewFactory creates a factory reading values from form. When form also
// implements condition.Form, field availability is honoured by conditions.
func NewFactory(form datatree.Reader, opts ...Option) *Factory {
	if form == nil {
		form = datatree.New(nil)
	}
	f := &Factory{
		form:            form,
		extra:           make(map[string]Definition),
		clock:           clock.RealClock{},
		log:             logger.Discard(),
		locale:          i18n.DefaultLanguage,
		endpointConfigs: make(map[string]any),
		endpoints:       make(map[string]remote.Endpoint),
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.registry == nil {
		f.registry = NewRegistry()
	} else {
		f.registry = f.registry.Clone()
	}
	for name, def := range f.extra {
		f.registry.Register(name, def)
	}
	if f.cmp == nil {
		layout := f.dateFormat
		if layout == "" {
			layout = compare.DefaultDateFormat
		}
		f.cmp = compare.New(compare.WithDateFormat(layout), compare.WithClock(f.clock))
	}
	if f.dateFormat == "" {
		f.dateFormat = f.cmp.DateFormat()
	}
	if f.eval == nil {
		f.eval = condition.NewEvaluator(conditionForm(form), f.cmp, condition.WithLogger(f.log))
	}
	if f.messages == nil {
		f.messages = DefaultMessages()
	}
	return f
}

// Comparator returns the comparator rule conditions and comparison rules
// evaluate with.
func (f *Factory) Comparator() *compare.Comparator {
	return f.cmp
}

// Registry returns the factory's rule registry.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// Build creates one validator per rule in rules for the field at path.
// Items may be a rule string ("min:3"), a conditional object
// (map[string]any{"required": []any{"country", "US"}}), a rule.Spec, an
// Inline, a Rule, or a []any{func, attributes} pair.
//
// All configuration problems are reported together as *ConfigError values
// joined into one error; no validators are returned in that case.
func (f *Factory) Build(path string, rules []any, opts ...BuildOption) ([]*Validator, error) {
	var fo fieldOptions
	for _, opt := range opts {
		opt(&fo)
	}

	items := make([]item, 0, len(rules))
	var errs []error
	for _, raw := range rules {
		it, err := parseItem(raw, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, it)
	}

	numeric := slices.ContainsFunc(items, func(it item) bool {
		return it.inline == nil && (it.spec.Name == "numeric" || it.spec.Name == "integer")
	})

	validators := make([]*Validator, 0, len(items))
	for _, it := range items {
		v, err := f.build(path, it, numeric, fo)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		validators = append(validators, v)
	}

	if len(errs) > 0 {
		for _, v := range validators {
			v.Close()
		}
		return nil, errors.Join(errs...)
	}
	return validators, nil
}

func (f *Factory) build(path string, it item, numeric bool, fo fieldOptions) (*Validator, error) {
	spec := it.spec
	r, nullable := it.inline, it.nullable
	if r == nil {
		def, ok := f.registry.Lookup(spec.Name)
		if !ok {
			return nil, configError(path, spec.Name, ErrUnknownRule)
		}
		if n := len(spec.Args()); n < def.Args {
			return nil, configError(path, spec.Name,
				fmt.Errorf("%w: expected %d, got %d", ErrMissingAttribute, def.Args, n))
		}

		env := Env{Path: path, Numeric: numeric, DateFormat: f.dateFormat, Form: f.form}
		if isNetworkRule(spec.Name) {
			ep, err := f.endpoint(spec.Name)
			if err != nil {
				return nil, configError(path, spec.Name, err)
			}
			env.Endpoint = ep
		}

		built, err := def.New(spec, env)
		if err != nil {
			return nil, configError(path, spec.Name, err)
		}
		r, nullable = built, def.Nullable
	}

	debounce := f.debounce
	if fo.hasDebounce {
		debounce = fo.debounce
	}
	if ms, ok := spec.Attr(debounceAttr); ok {
		n, isNum := ms.(float64)
		if !isNum || n < 0 {
			return nil, configError(path, spec.Name, fmt.Errorf("%w: debounce must be a non-negative number of milliseconds", ErrInvalidAttribute))
		}
		debounce = time.Duration(n * float64(time.Millisecond))
	}

	messages := fo.messages
	if it.message != "" {
		messages = maps.Clone(messages)
		if messages == nil {
			messages = make(map[string]string, 1)
		}
		messages[spec.Name] = it.message
	}

	return newValidator(f, validatorConfig{
		path:     path,
		spec:     spec,
		rule:     r,
		nullable: nullable,
		debounce: debounce,
		label:    fo.label,
		messages: messages,
	}), nil
}

func isNetworkRule(name string) bool {
	return name == "exists" || name == "unique" || name == "active_url"
}

// endpoint resolves and caches the endpoint configured for rule.
func (f *Factory) endpoint(rule string) (remote.Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ep, ok := f.endpoints[rule]; ok {
		return ep, nil
	}
	cfg, ok := f.endpointConfigs[rule]
	if !ok {
		if rule == "active_url" {
			ep := remote.NewReachability(defaultActiveURLProbe)
			f.endpoints[rule] = ep
			return ep, nil
		}
		return nil, nil
	}
	ep, err := remote.FromConfig(cfg)
	if err != nil {
		return nil, errors.Join(ErrInvalidEndpoint, err)
	}
	f.endpoints[rule] = ep
	return ep, nil
}

func (f *Factory) input(path string, spec rule.Spec, value any) Input {
	return Input{
		Path:    path,
		Value:   value,
		Spec:    spec,
		Form:    f.form,
		Compare: f.cmp,
		Now:     f.clock.Now(),
	}
}

// Inline is a rule written in Go next to the field definition.
type Inline struct {
	// Name is used for message lookup; it defaults to "custom".
	Name       string
	Check      func(in Input) bool
	Async      func(ctx context.Context, in Input) (bool, error)
	Attributes map[string]any
	Nullable   bool
	Message    string
}

type item struct {
	spec     rule.Spec
	inline   Rule
	nullable bool
	message  string
}

func parseItem(raw any, path string) (item, error) {
	switch x := raw.(type) {
	case string:
		spec, err := rule.Parse(x)
		if err != nil {
			return item{}, configError(path, "", err)
		}
		return item{spec: spec}, nil
	case map[string]any:
		spec, err := rule.ParseConditional(x, path)
		if err != nil {
			return item{}, configError(path, "", err)
		}
		return item{spec: spec}, nil
	case rule.Spec:
		return item{spec: x.Bind(path)}, nil
	case Inline:
		return inlineItem(x, path)
	case *Inline:
		if x == nil {
			return item{}, configError(path, "", ErrInvalidRule)
		}
		return inlineItem(*x, path)
	case []any:
		return pairItem(x, path)
	case Rule:
		return item{spec: rule.Spec{Name: customRuleName}, inline: x}, nil
	}
	return item{}, configError(path, "", fmt.Errorf("%w: unsupported item %T", ErrInvalidRule, raw))
}

func inlineItem(in Inline, path string) (item, error) {
	name := in.Name
	if name == "" {
		name = customRuleName
	}
	spec := rule.Spec{Name: name, Attributes: attributes(in.Attributes)}

	var r Rule
	switch {
	case in.Async != nil:
		r = &inlineAsync{check: in.Check, async: in.Async}
	case in.Check != nil:
		r = RuleFunc(in.Check)
	default:
		return item{}, configError(path, name, fmt.Errorf("%w: inline rule without a check", ErrInvalidRule))
	}
	return item{spec: spec, inline: r, nullable: in.Nullable, message: in.Message}, nil
}

// pairItem reads []any{check, attributes}.
func pairItem(pair []any, path string) (item, error) {
	if len(pair) == 0 || len(pair) > 2 {
		return item{}, configError(path, "", fmt.Errorf("%w: expected [check, attributes]", ErrInvalidRule))
	}
	in := Inline{}
	if len(pair) == 2 {
		attrs, ok := pair[1].(map[string]any)
		if !ok && pair[1] != nil {
			return item{}, configError(path, "", fmt.Errorf("%w: attributes must be an object", ErrInvalidRule))
		}
		in.Attributes = attrs
	}
	switch fn := pair[0].(type) {
	case func(Input) bool:
		in.Check = fn
	case RuleFunc:
		in.Check = fn
	case func(context.Context, Input) (bool, error):
		in.Async = fn
	case AsyncFunc:
		in.Async = fn
	case Rule:
		return item{spec: rule.Spec{Name: customRuleName, Attributes: attributes(in.Attributes)}, inline: fn}, nil
	default:
		return item{}, configError(path, "", fmt.Errorf("%w: unsupported check %T", ErrInvalidRule, pair[0]))
	}
	return inlineItem(in, path)
}

// attributes turns an attribute map into named attributes, sorted by key.
func attributes(m map[string]any) rule.Attributes {
	if len(m) == 0 {
		return nil
	}
	out := make(rule.Attributes, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, rule.Attr{Key: k, Index: -1, Named: true, Value: m[k]})
	}
	return out
}

type inlineAsync struct {
	check func(in Input) bool
	async func(ctx context.Context, in Input) (bool, error)
}

func (r *inlineAsync) Check(in Input) bool {
	return r.check == nil || r.check(in)
}

func (r *inlineAsync) CheckContext(ctx context.Context, in Input) (bool, error) {
	return r.async(ctx, in)
}

// conditionForm adapts a plain reader; it declares no field conditions.
func conditionForm(r datatree.Reader) condition.Form {
	if cf, ok := r.(condition.Form); ok {
		return cf
	}
	return readerForm{r}
}

type readerForm struct{ r datatree.Reader }

func (f readerForm) Value(path string) (any, bool) { return f.r.Get(path) }

func (readerForm) Conditions(string) condition.Condition { return nil }
