package tracker

import "time"

// Evaluator executes expressions against one partition entry.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// RuleContext carries the entry an expression is evaluated against. The
// expression sees the variables subject, payload, state, now and args.
type RuleContext struct {
	State   string
	Subject any
	Payload any
	Now     *time.Time
	Args    map[string]any
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx RuleContext) stateLabel() string {
	if ctx.State != "" {
		return ctx.State
	}
	return "unknown"
}

func (ctx RuleContext) bindings() map[string]any {
	ctx = ctx.withDefaults()
	return map[string]any{
		"subject": ctx.Subject,
		"payload": ctx.Payload,
		"state":   ctx.State,
		"now":     *ctx.Now,
		"args":    ctx.Args,
	}
}
