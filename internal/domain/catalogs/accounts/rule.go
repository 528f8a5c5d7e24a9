package accounts

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"ledger/internal/core/apperror"
)

// RuleEvaluator compiles and evaluates tag eligibility rules.
//
// A rule sees one variable, `account`, a map with keys code, name,
// normal_balance ("debit"/"credit"), control_account_code, is_posting,
// is_active, balance and tags. Example:
//
//	account.normal_balance == "debit" && account.is_posting
type RuleEvaluator struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewRuleEvaluator creates an evaluator with the account environment.
func NewRuleEvaluator() (*RuleEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("account", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &RuleEvaluator{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile checks expr and caches its program. Non-boolean rules are rejected.
func (e *RuleEvaluator) Compile(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, apperror.NewValidation("invalid eligibility rule").
			WithDetail("rule", expr).
			WithDetail("error", iss.Err().Error())
	}
	if ot := ast.OutputType(); !ot.IsExactType(cel.BoolType) && !ot.IsExactType(cel.DynType) {
		return nil, apperror.NewValidation("eligibility rule must evaluate to a boolean").
			WithDetail("rule", expr)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build cel program: %w", err)
	}

	e.mu.Lock()
	e.programs[expr] = prg
	e.mu.Unlock()
	return prg, nil
}

// Eligible evaluates expr against acc. An empty rule admits every account.
func (e *RuleEvaluator) Eligible(expr string, acc *Account, tags []string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := e.Compile(expr)
	if err != nil {
		return false, err
	}
	if tags == nil {
		tags = []string{}
	}
	out, _, err := prg.Eval(map[string]any{
		"account": map[string]any{
			"code":                 acc.Code,
			"name":                 acc.Name,
			"normal_balance":       acc.NormalBalance.String(),
			"control_account_code": acc.Parent(),
			"is_posting":           acc.IsPostingAccount,
			"is_active":            acc.IsActive,
			"balance":              int64(acc.Balance),
			"tags":                 tags,
		},
	})
	if err != nil {
		return false, apperror.NewValidation("eligibility rule failed").
			WithDetail("rule", expr).
			WithDetail("error", err.Error())
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, apperror.NewValidation("eligibility rule must evaluate to a boolean").WithDetail("rule", expr)
	}
	return ok, nil
}
