package tracker

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError reports a failed compile or evaluation. Subject is set
// when the failure happened on a specific partition entry.
type EvaluationError struct {
	Engine  string
	Expr    string
	State   string
	Subject any
	Err     error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Subject != nil {
		return fmt.Sprintf("tracker: %s evaluator %s state=%s subject=%v: %v", e.Engine, describeExpression(e.Expr), e.State, e.Subject, e.Err)
	}
	return fmt.Sprintf("tracker: %s evaluator %s state=%s: %v", e.Engine, describeExpression(e.Expr), e.State, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "tracker:") {
		return err
	}
	return fmt.Errorf("tracker: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, state string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		filled := *evalErr
		if filled.Engine == "" {
			filled.Engine = engine
		}
		if filled.Expr == "" {
			filled.Expr = expr
		}
		if filled.State == "" {
			filled.State = state
		}
		return &filled
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		State:  state,
		Err:    err,
	}
}

// withSubject returns a copy of an evaluation failure tagged with the entry
// it was raised for. The input is left unmodified.
func withSubject(err error, subject any) error {
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Subject != nil {
		return err
	}
	tagged := *evalErr
	tagged.Subject = subject
	return &tagged
}
