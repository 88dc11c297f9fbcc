package form

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/formrules/pkg/async"
	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/condition"
	"github.com/dmitrymomot/formrules/pkg/datatree"
	"github.com/dmitrymomot/formrules/pkg/fieldpath"
	"github.com/dmitrymomot/formrules/pkg/i18n"
	"github.com/dmitrymomot/formrules/pkg/logger"
	"github.com/dmitrymomot/formrules/pkg/validator"
	"github.com/dmitrymomot/formrules/pkg/watcher"
)

// Field declares one form field.
type Field struct {
	// Rules are validator.Factory.Build items.
	Rules []any
	// When is the visibility condition in the condition grammar. A field
	// whose condition is false is unavailable: it is not validated and
	// reports no errors.
	When any
	// Label replaces the humanized path in messages.
	Label string
	// Messages overrides catalog messages by rule name or short key.
	Messages map[string]string
	// Debounce overrides the factory debounce window when set.
	Debounce *time.Duration
}

func (d Field) buildOptions() []validator.BuildOption {
	var opts []validator.BuildOption
	if d.Label != "" {
		opts = append(opts, validator.Label(d.Label))
	}
	if len(d.Messages) > 0 {
		opts = append(opts, validator.CustomMessages(d.Messages))
	}
	if d.Debounce != nil {
		opts = append(opts, validator.Debounce(*d.Debounce))
	}
	return opts
}

type field struct {
	path       string
	cond       condition.Condition
	condPaths  []string
	validators []*validator.Validator
}

func (fd *field) close() {
	for _, v := range fd.validators {
		v.Close()
	}
}

func (fd *field) reset() {
	for _, v := range fd.validators {
		v.Reset()
	}
}

func (fd *field) invalid() bool {
	return slices.ContainsFunc(fd.validators, (*validator.Validator).Invalid)
}

// Form is one live form: values, fields, validators and dependencies.
// It implements datatree.Reader and condition.Form and is safe for
// concurrent use.
type Form struct {
	store   *datatree.Store
	factory *validator.Factory
	watch   *watcher.Table
	eval    *condition.Evaluator
	cmp     *compare.Comparator
	log     *slog.Logger
	locale  string
	vopts   []validator.Option

	// structure serializes field registration and list operations.
	structure sync.Mutex

	// mu guards the maps only; it is never held while validators run.
	mu     sync.RWMutex
	fields map[string]*field
	lists  map[string]map[string]Field
	closed bool
}

// New creates a form over data. The map seeds the backing tree; it is not
// copied and the form never writes to it.
func New(data map[string]any, opts ...Option) *Form {
	f := &Form{
		store:  datatree.New(data),
		log:    logger.Discard(),
		locale: i18n.DefaultLanguage,
		fields: make(map[string]*field),
		lists:  make(map[string]map[string]Field),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.watch = watcher.New(watcher.WithLogger(f.log))
	vopts := []validator.Option{validator.WithLogger(f.log), validator.WithLocale(f.locale)}
	if f.cmp != nil {
		vopts = append(vopts, validator.WithComparator(f.cmp))
	}
	f.factory = validator.NewFactory(f, append(vopts, f.vopts...)...)
	// Visibility uses the same date layout and clock as rule conditions.
	f.cmp = f.factory.Comparator()
	f.eval = condition.NewEvaluator(f, f.cmp, condition.WithLogger(f.log))
	return f
}

// Store returns the value tree.
func (f *Form) Store() *datatree.Store { return f.store }

// Factory returns the validator factory bound to this form.
func (f *Form) Factory() *validator.Factory { return f.factory }

// Get implements datatree.Reader.
func (f *Form) Get(path string) (any, bool) { return f.store.Get(path) }

// Value implements condition.Form.
func (f *Form) Value(path string) (any, bool) { return f.store.Get(path) }

// Conditions implements condition.Form.
func (f *Form) Conditions(path string) condition.Condition {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if fd, ok := f.fields[path]; ok {
		return fd.cond
	}
	return nil
}

// AddField registers a field, replacing any previous definition at path.
// Configuration errors are returned as *validator.ConfigError values.
func (f *Form) AddField(path string, def Field) error {
	f.structure.Lock()
	defer f.structure.Unlock()
	return f.addField(path, def)
}

func (f *Form) addField(path string, def Field) error {
	if path == "" {
		return ErrEmptyPath
	}
	f.mu.RLock()
	closed := f.closed
	f.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	cond, condPaths, err := condition.Compile(def.When, path)
	if err != nil {
		return &validator.ConfigError{Path: path, Err: err}
	}
	vs, err := f.factory.Build(path, def.Rules, def.buildOptions()...)
	if err != nil {
		return err
	}
	fd := &field{path: path, cond: cond, condPaths: condPaths, validators: vs}

	f.mu.Lock()
	old := f.fields[path]
	f.fields[path] = fd
	f.mu.Unlock()

	if old != nil {
		old.close()
	}
	f.subscribe(fd)
	f.log.Debug("field registered",
		logger.Component("form"),
		logger.Field(path),
		slog.Int("rules", len(vs)),
	)
	return nil
}

// subscribe replaces the field's dependency subscriptions: one per
// validator with dependencies, plus one for the visibility condition.
func (f *Form) subscribe(fd *field) {
	f.watch.Release(fd.path)
	for _, v := range fd.validators {
		deps := v.Dependencies()
		if len(deps) == 0 {
			continue
		}
		f.watch.Watch(fd.path, deps, func(ctx context.Context, _ string) {
			if skipped(ctx, fd.path) {
				return
			}
			if !f.Available(fd.path) {
				v.Reset()
				return
			}
			v.Validate(ctx)
		})
	}
	if len(fd.condPaths) > 0 {
		f.watch.Watch(fd.path, fd.condPaths, func(ctx context.Context, _ string) {
			if !f.Available(fd.path) {
				fd.reset()
			}
		})
	}
}

// RemoveField drops the field at path and closes its validators.
func (f *Form) RemoveField(path string) {
	f.structure.Lock()
	defer f.structure.Unlock()
	f.removeFields([]string{path})
}

func (f *Form) removeFields(paths []string) {
	f.mu.Lock()
	removed := make([]*field, 0, len(paths))
	for _, p := range paths {
		if fd, ok := f.fields[p]; ok {
			removed = append(removed, fd)
			delete(f.fields, p)
		}
	}
	f.mu.Unlock()

	for _, fd := range removed {
		f.watch.Release(fd.path)
		fd.close()
	}
}

// Fields returns the registered field paths, sorted.
func (f *Form) Fields() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Sorted(maps.Keys(f.fields))
}

// Dependencies returns the paths the field at path watches, sorted.
func (f *Form) Dependencies(path string) []string {
	return f.watch.Sources(path)
}

func (f *Form) field(path string) (*field, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fd, ok := f.fields[path]
	return fd, ok
}

// snapshot returns the registered fields ordered by path.
func (f *Form) snapshot() []*field {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*field, 0, len(f.fields))
	for _, p := range slices.Sorted(maps.Keys(f.fields)) {
		out = append(out, f.fields[p])
	}
	return out
}

// Available reports whether the field at path passes its visibility
// condition, taking the availability of referenced fields into account.
func (f *Form) Available(path string) bool {
	return f.eval.Available(path)
}

type skipKey struct{}

// skipped reports whether path was already validated directly for the
// change being propagated.
func skipped(ctx context.Context, path string) bool {
	set, _ := ctx.Value(skipKey{}).(map[string]struct{})
	_, ok := set[path]
	return ok
}

// SetValue writes value at path, validates the fields at, above and below
// path and then every validator depending on it.
func (f *Form) SetValue(ctx context.Context, path string, value any) error {
	if err := f.store.Set(path, value); err != nil {
		return err
	}

	direct := make(map[string]struct{})
	for _, fd := range f.snapshot() {
		if fieldpath.Related(fd.path, path) {
			direct[fd.path] = struct{}{}
			f.validateField(ctx, fd, false)
		}
	}
	f.watch.Notify(context.WithValue(ctx, skipKey{}, direct), path)
	return nil
}

// Validate runs the validators of the field at path, honouring debounce.
// Unknown paths are ignored.
func (f *Form) Validate(ctx context.Context, path string) {
	if fd, ok := f.field(path); ok {
		f.validateField(ctx, fd, false)
	}
}

func (f *Form) validateField(ctx context.Context, fd *field, immediate bool) {
	if !f.Available(fd.path) {
		fd.reset()
		return
	}
	for _, v := range fd.validators {
		if immediate {
			v.ValidateNow(ctx)
		} else {
			v.Validate(ctx)
		}
	}
}

// ValidateAll validates every available field without debouncing, waits
// for async checks and returns validator.ValidationErrors when any field is
// invalid. A context error is returned when ctx ends first.
func (f *Form) ValidateAll(ctx context.Context) error {
	var waits []*async.Future[struct{}]
	for _, fd := range f.snapshot() {
		if !f.Available(fd.path) {
			fd.reset()
			continue
		}
		for _, v := range fd.validators {
			v.ValidateNow(ctx)
			waits = append(waits, async.Async(ctx, v, wait))
		}
	}
	if _, err := async.WaitAll(waits...); err != nil {
		return err
	}

	if errs := f.Failures(f.locale); !errs.IsEmpty() {
		return errs
	}
	return nil
}

func wait(ctx context.Context, v *validator.Validator) (struct{}, error) {
	return struct{}{}, v.Wait(ctx)
}

// Wait blocks until no validator has a debounce timer armed or an async
// check in flight.
func (f *Form) Wait(ctx context.Context) error {
	for _, fd := range f.snapshot() {
		for _, v := range fd.validators {
			if err := v.Wait(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Invalid reports whether the field at path is available and has a failing
// rule.
func (f *Form) Invalid(path string) bool {
	fd, ok := f.field(path)
	return ok && f.Available(path) && fd.invalid()
}

// Pending reports whether the field at path has an async check in flight.
func (f *Form) Pending(path string) bool {
	fd, ok := f.field(path)
	return ok && slices.ContainsFunc(fd.validators, (*validator.Validator).Pending)
}

// Errors returns the failure messages of the field at path in locale.
func (f *Form) Errors(path, locale string) []string {
	fd, ok := f.field(path)
	if !ok || !f.Available(path) {
		return nil
	}
	var out []string
	for _, v := range fd.validators {
		if v.Invalid() {
			out = append(out, v.Message(locale))
		}
	}
	return out
}

// Failures returns the current failures of all available fields, ordered by
// path and rule declaration.
func (f *Form) Failures(locale string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for _, fd := range f.snapshot() {
		if !f.Available(fd.path) {
			continue
		}
		for _, v := range fd.validators {
			if e := v.Error(locale); e != nil {
				errs.Add(*e)
			}
		}
	}
	return errs
}

// Close closes every validator and drops all fields. Later registrations
// fail with ErrClosed.
func (f *Form) Close() {
	f.structure.Lock()
	defer f.structure.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	paths := slices.Collect(maps.Keys(f.fields))
	f.mu.Unlock()

	f.removeFields(paths)
}
