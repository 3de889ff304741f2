package tracker

import (
	"context"
	"iter"

	"github.com/goliatone/go-tracker/pkg/activity"
)

// Storage persists the full partitioned state of a tracker. Save receives
// the subject universe in output order plus every partition; Load yields one
// subject with the states it occupies per persisted record, in document order.
// Implementations own encoding and must surface codec failures as errors.
type Storage[K comparable, V any] interface {
	Save(ctx context.Context, subjects []K, partitions map[string]map[K]V) error
	Load(ctx context.Context) (iter.Seq2[K, map[string]V], error)
}

// Predicate decides whether a subject keeps its membership during a filter.
type Predicate[K comparable, V any] func(subject K, payload V) bool

// Set is an unordered collection of subjects.
type Set[K comparable] map[K]struct{}

// Has reports whether subject is in the set.
func (s Set[K]) Has(subject K) bool {
	_, ok := s[subject]
	return ok
}

// Len returns the number of subjects in the set.
func (s Set[K]) Len() int {
	return len(s)
}

// Slice returns the members in unspecified order.
func (s Set[K]) Slice() []K {
	out := make([]K, 0, len(s))
	for subject := range s {
		out = append(out, subject)
	}
	return out
}

// Equal reports whether both sets hold exactly the same subjects.
func (s Set[K]) Equal(other Set[K]) bool {
	if len(s) != len(other) {
		return false
	}
	for subject := range s {
		if !other.Has(subject) {
			return false
		}
	}
	return true
}

// Option configures a Tracker at construction.
type Option func(*trackerConfig)

type trackerConfig struct {
	storage           any
	subjectOrder      any
	formatter         func(any) string
	logger            Logger
	evaluator         Evaluator
	programCache      ProgramCache
	functions         *FunctionRegistry
	activityHooks     activity.Hooks
	activityConfig    activity.Config
	activityConfigSet bool
	errs              []error
}

func applyOptions(opts []Option) trackerConfig {
	cfg := trackerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithStorage attaches the persistence adapter used by Load and Save. The
// adapter's type parameters must match the tracker's.
func WithStorage[K comparable, V any](storage Storage[K, V]) Option {
	return func(cfg *trackerConfig) {
		if storage == nil {
			cfg.storage = nil
			return
		}
		cfg.storage = storage
	}
}

// WithSubjectOrder sorts subjects with cmp before handing them to Save so the
// persisted document has a stable order.
func WithSubjectOrder[K comparable](cmp func(a, b K) int) Option {
	return func(cfg *trackerConfig) {
		if cmp == nil {
			cfg.subjectOrder = nil
			return
		}
		cfg.subjectOrder = cmp
	}
}

// WithSubjectFormatter controls how subjects render in activity events and
// log output. Defaults to fmt's %v verb.
func WithSubjectFormatter(format func(subject any) string) Option {
	return func(cfg *trackerConfig) {
		cfg.formatter = format
	}
}

// WithEvaluator configures the expression engine used by FilterStateExpr and
// Select. Defaults to expr-lang.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *trackerConfig) {
		cfg.evaluator = e
	}
}
