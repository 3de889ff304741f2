package tracker

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("tracker: evaluator not configured")

// FilterStateExpr removes every subject in state whose entry does not satisfy
// expression and returns the removed subjects. The expression sees subject,
// payload, state, now and args; its result is read with Truthy. Any
// evaluation error aborts the filter before anything is removed.
func (t *Tracker[K, V]) FilterStateExpr(state, expression string) (Set[K], error) {
	decide, err := t.exprDecider(state, expression)
	if err != nil {
		return nil, err
	}
	return t.filter("filter", state, decide)
}

// Select returns the subjects in state whose entry satisfies expression,
// without modifying the tracker.
func (t *Tracker[K, V]) Select(state, expression string) (Set[K], error) {
	decide, err := t.exprDecider(state, expression)
	if err != nil {
		return nil, err
	}
	entries, err := t.snapshot("select", state)
	if err != nil {
		return nil, err
	}
	out := Set[K]{}
	for subject, payload := range entries {
		keep, err := decide(subject, payload)
		if err != nil {
			return nil, err
		}
		if keep {
			out[subject] = struct{}{}
		}
	}
	return out, nil
}

func (t *Tracker[K, V]) exprDecider(state, expression string) (func(K, V) (bool, error), error) {
	if !t.Has(state) {
		return nil, unknownState("filter", state)
	}
	if expression == "" {
		return nil, fmt.Errorf("tracker: expression must not be empty")
	}
	evaluator, err := t.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	rule, err := evaluator.Compile(expression)
	if err != nil {
		err = wrapEvaluationError(engine, expression, state, err)
		t.logger().LogEvent(LogEvent{Op: "compile", State: state, Engine: engine, Expr: expression, Err: err})
		return nil, err
	}
	now := time.Now()
	return func(subject K, payload V) (bool, error) {
		start := time.Now()
		value, err := rule.Evaluate(RuleContext{
			State:   state,
			Subject: subject,
			Payload: payload,
			Now:     &now,
		})
		if err != nil {
			err = withSubject(wrapEvaluationError(engine, expression, state, err), subject)
			t.logger().LogEvent(LogEvent{Op: "evaluate", State: state, Engine: engine, Expr: expression, Duration: time.Since(start), Err: err})
			return false, err
		}
		return Truthy(value), nil
	}, nil
}

func (t *Tracker[K, V]) resolveEvaluator() (Evaluator, error) {
	t.mu.RLock()
	evaluator := t.cfg.evaluator
	t.mu.RUnlock()
	if evaluator != nil {
		return evaluator, nil
	}

	var exprOpts []ExprEvaluatorOption
	if t.cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(t.cfg.programCache))
	}
	if t.cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(t.cfg.functions))
	}
	evaluator = NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	t.mu.Lock()
	t.cfg.evaluator = evaluator
	t.mu.Unlock()
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch e.(type) {
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if isJSEvaluator(e) {
			return "js"
		}
		return "custom"
	}
}
