package validator

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tiendc/go-deepcopy"
	"k8s.io/utils/clock"

	"github.com/dmitrymomot/formrules/pkg/async"
	"github.com/dmitrymomot/formrules/pkg/i18n"
	"github.com/dmitrymomot/formrules/pkg/logger"
	"github.com/dmitrymomot/formrules/pkg/rule"
)

// Validator runs one rule for one field and keeps its outcome.
//
// Validate moves it from idle through one of: skipped (nullable rule with an
// unfilled value, or a false rule condition), debounced (a timer that
// restarts on every call), a synchronous result, or pending (an async check
// in flight). Async results are applied only when they belong to the latest
// dispatch and the field still holds the value that was checked.
//
// A Validator is safe for concurrent use.
type Validator struct {
	f        *Factory
	path     string
	spec     rule.Spec
	rule     Rule
	nullable bool
	debounce time.Duration
	label    string
	custom   map[string]string

	life   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	seq      uint64
	invalid  bool
	pending  bool
	timer    clock.Timer
	timerCtx context.Context
	busy     int
	idle     chan struct{}
	closed   bool
}

type validatorConfig struct {
	path     string
	spec     rule.Spec
	rule     Rule
	nullable bool
	debounce time.Duration
	label    string
	messages map[string]string
}

func newValidator(f *Factory, cfg validatorConfig) *Validator {
	life, cancel := context.WithCancel(context.Background())
	return &Validator{
		f:        f,
		path:     cfg.path,
		spec:     cfg.spec,
		rule:     cfg.rule,
		nullable: cfg.nullable,
		debounce: cfg.debounce,
		label:    cfg.label,
		custom:   cfg.messages,
		life:     life,
		cancel:   cancel,
	}
}

// Path returns the field path the validator is bound to.
func (v *Validator) Path() string { return v.path }

// Name returns the rule name.
func (v *Validator) Name() string { return v.spec.Name }

// Spec returns the parsed rule.
func (v *Validator) Spec() rule.Spec { return v.spec }

// Debounce returns the effective debounce window.
func (v *Validator) Debounce() time.Duration { return v.debounce }

// Validate checks the field's current value, honouring the debounce window.
func (v *Validator) Validate(ctx context.Context) {
	v.dispatch(ctx, false)
}

// ValidateNow checks the field's current value without debouncing. A
// pending debounce timer is dropped.
func (v *Validator) ValidateNow(ctx context.Context) {
	v.dispatch(ctx, true)
}

func (v *Validator) dispatch(ctx context.Context, immediate bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.seq++
	v.stopTimer()
	value, _ := v.f.form.Get(v.path)
	v.evaluate(ctx, v.seq, value, immediate)
}

// evaluate must be called with v.mu held.
func (v *Validator) evaluate(ctx context.Context, seq uint64, value any, immediate bool) {
	switch {
	case v.nullable && !Filled(value):
		v.settle(false)
	case v.spec.Condition != nil && !v.f.eval.Evaluate(v.spec.Condition, v.path):
		v.settle(false)
	case !immediate && v.debounce > 0 && Filled(value):
		v.schedule(ctx, seq)
	default:
		v.run(ctx, seq, value)
	}
}

func (v *Validator) settle(invalid bool) {
	v.invalid = invalid
	v.pending = false
}

// schedule arms the debounce timer. The timer callback only starts a
// goroutine: fake clocks run callbacks while holding their own lock.
func (v *Validator) schedule(ctx context.Context, seq uint64) {
	v.begin()
	v.timerCtx = context.WithoutCancel(ctx)
	v.timer = v.f.clock.AfterFunc(v.debounce, func() {
		go v.fire(seq)
	})
}

func (v *Validator) fire(seq uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	defer v.end()

	if v.closed || seq != v.seq {
		return
	}
	v.timer = nil
	value, _ := v.f.form.Get(v.path)
	v.evaluate(v.timerCtx, seq, value, true)
}

// stopTimer must be called with v.mu held. A timer that was stopped before
// firing gives back its busy slot; one that already fired gives it back in
// fire.
func (v *Validator) stopTimer() {
	if v.timer == nil {
		return
	}
	if v.timer.Stop() {
		v.end()
	}
	v.timer = nil
}

// run performs the check; must be called with v.mu held.
func (v *Validator) run(ctx context.Context, seq uint64, value any) {
	in := v.f.input(v.path, v.spec, value)
	if !v.safeCheck(in) {
		v.settle(true)
		return
	}
	ar, ok := v.rule.(AsyncRule)
	if !ok {
		v.settle(false)
		return
	}

	origin := v.snapshot(value)
	v.pending = true
	v.begin()

	cctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.life, cancel)
	future := async.Async(cctx, in, ar.CheckContext)
	go func() {
		valid, err := future.Await()
		stop()
		cancel()
		v.complete(seq, origin, valid, err)
	}()
}

func (v *Validator) complete(seq uint64, origin any, valid bool, err error) {
	v.mu.Lock()
	var report error
	switch {
	case v.closed || seq != v.seq:
		v.log().Debug("discarding result of superseded check")
	default:
		v.pending = false
		current, _ := v.f.form.Get(v.path)
		if !reflect.DeepEqual(current, origin) {
			v.log().Debug("discarding result for a value that has since changed")
			break
		}
		if err != nil {
			v.invalid = true
			report = err
			break
		}
		v.invalid = !valid
	}
	v.mu.Unlock()

	if report != nil {
		v.log().Warn("remote validation failed", logger.Error(report))
		if v.f.onError != nil {
			v.f.onError(v.path, v.spec.Name, report)
		}
	}

	// Waiters are released only after the failure has been reported.
	v.mu.Lock()
	v.end()
	v.mu.Unlock()
}

func (v *Validator) safeCheck(in Input) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v.log().Error("rule panicked", logger.Error(fmt.Errorf("%v", r)))
			ok = false
		}
	}()
	return v.rule.Check(in)
}

// snapshot copies lists and objects so later in-place edits are seen as
// changes. Other values are compared as they are.
func (v *Validator) snapshot(value any) any {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
	default:
		return value
	}
	dst := reflect.New(rv.Type())
	if err := deepcopy.Copy(dst.Interface(), value); err != nil {
		v.log().Debug("value not copyable, comparing by reference", logger.Error(err))
		return value
	}
	return dst.Elem().Interface()
}

func (v *Validator) begin() {
	if v.busy == 0 {
		v.idle = make(chan struct{})
	}
	v.busy++
}

func (v *Validator) end() {
	if v.busy == 0 {
		return
	}
	v.busy--
	if v.busy == 0 {
		close(v.idle)
	}
}

// Wait blocks until no debounce timer is armed and no async check is in
// flight, or until ctx is done.
func (v *Validator) Wait(ctx context.Context) error {
	for {
		v.mu.Lock()
		if v.busy == 0 {
			v.mu.Unlock()
			return nil
		}
		idle := v.idle
		v.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Invalid reports the outcome of the last applied check.
func (v *Validator) Invalid() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.invalid
}

// Pending reports whether an async check is in flight.
func (v *Validator) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending
}

// Params returns the message parameters for the current value. They always
// include attribute.
func (v *Validator) Params() map[string]any {
	value, _ := v.f.form.Get(v.path)
	return v.params(v.f.input(v.path, v.spec, value))
}

func (v *Validator) params(in Input) map[string]any {
	out := make(map[string]any)
	for _, a := range v.spec.Attributes {
		if a.Named && a.Key != debounceAttr {
			out[a.Key] = a.Value
		}
	}
	if args := v.spec.Strings(); len(args) > 0 {
		out["values"] = args
	}
	if p, ok := v.rule.(Parameterized); ok {
		maps.Copy(out, p.Params(in))
	}
	out["attribute"] = v.attribute()
	return out
}

func (v *Validator) attribute() string {
	if v.label != "" {
		return v.label
	}
	return humanize(v.path)
}

// MessageKey returns the catalog key for the current value, such as
// "validation.required" or "validation.min.string".
func (v *Validator) MessageKey() string {
	value, _ := v.f.form.Get(v.path)
	return v.messageKey(v.f.input(v.path, v.spec, value))
}

func (v *Validator) messageKey(in Input) string {
	if k, ok := v.rule.(Keyed); ok {
		if key := k.MessageKey(in); key != "" {
			return key
		}
	}
	return "validation." + v.spec.Name
}

// Message renders the failure message in locale; an empty locale uses the
// factory default. Custom field messages win over the catalog.
func (v *Validator) Message(locale string) string {
	if locale == "" {
		locale = v.f.locale
	}
	value, _ := v.f.form.Get(v.path)
	in := v.f.input(v.path, v.spec, value)
	key := v.messageKey(in)
	params := v.params(in)

	if tmpl, ok := v.customMessage(key); ok {
		return i18n.Interpolate(tmpl, params)
	}
	for _, k := range []string{key, "validation." + v.spec.Name, fallbackKey} {
		if tmpl, ok := v.f.messages.Lookup(locale, k); ok {
			return i18n.Interpolate(tmpl, params)
		}
	}
	return key
}

func (v *Validator) customMessage(key string) (string, bool) {
	if len(v.custom) == 0 {
		return "", false
	}
	short := strings.TrimPrefix(key, "validation.")
	for _, k := range []string{short, v.spec.Name} {
		if msg, ok := v.custom[k]; ok {
			return msg, true
		}
	}
	return "", false
}

// Error returns the failure as a ValidationError, or nil when the field is
// valid.
func (v *Validator) Error(locale string) *ValidationError {
	if !v.Invalid() {
		return nil
	}
	value, _ := v.f.form.Get(v.path)
	in := v.f.input(v.path, v.spec, value)
	return &ValidationError{
		Field:             v.path,
		Rule:              v.spec.Name,
		Message:           v.Message(locale),
		TranslationKey:    v.messageKey(in),
		TranslationValues: v.params(in),
	}
}

// Dependencies returns the paths whose changes must trigger revalidation:
// the rule condition's paths, the fields the rule reads and placeholders
// of its endpoint. Order is stable and duplicates are removed.
func (v *Validator) Dependencies() []string {
	deps := slices.Clone(v.spec.DependentPaths)
	if d, ok := v.rule.(Dependent); ok {
		deps = append(deps, d.Dependencies(v.path)...)
	}
	seen := make(map[string]struct{}, len(deps))
	out := deps[:0]
	for _, d := range deps {
		if _, dup := seen[d]; dup || d == "" || d == v.path {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Reset drops any timer and in-flight result and marks the field valid.
func (v *Validator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	v.stopTimer()
	v.settle(false)
}

// Close stops the debounce timer and discards in-flight results. Async
// checks see their context canceled. Close is idempotent.
func (v *Validator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.seq++
	v.stopTimer()
	v.pending = false
	v.cancel()
}

func (v *Validator) log() *slog.Logger {
	return v.f.log.With(
		logger.Component("validator"),
		logger.Field(v.path),
		logger.Rule(v.spec.Name),
	)
}
