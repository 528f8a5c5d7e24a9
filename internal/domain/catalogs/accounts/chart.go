package accounts

import (
	"sort"

	"ledger/internal/core/apperror"
)

// Chart is an arena of accounts indexed by code with a parent index.
// It is a read-only snapshot; services rebuild it per operation.
type Chart struct {
	accounts map[string]*Account
	children map[string][]string
}

// NewChart indexes accounts. Later duplicates replace earlier ones.
func NewChart(list []Account) *Chart {
	c := &Chart{
		accounts: make(map[string]*Account, len(list)),
		children: make(map[string][]string),
	}
	for i := range list {
		acc := list[i]
		c.accounts[acc.Code] = &acc
	}
	for code, acc := range c.accounts {
		if p := acc.Parent(); p != "" {
			c.children[p] = append(c.children[p], code)
		}
	}
	for p := range c.children {
		sort.Strings(c.children[p])
	}
	return c
}

// Len returns the number of accounts.
func (c *Chart) Len() int { return len(c.accounts) }

// Get returns the account with code.
func (c *Chart) Get(code string) (*Account, bool) {
	acc, ok := c.accounts[code]
	return acc, ok
}

// Codes returns all account codes in ascending order.
func (c *Chart) Codes() []string {
	codes := make([]string, 0, len(c.accounts))
	for code := range c.accounts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Children returns the direct children of code in ascending order.
func (c *Chart) Children(code string) []string {
	return c.children[code]
}

// IsControl reports whether code has children.
func (c *Chart) IsControl(code string) bool {
	return len(c.children[code]) > 0
}

// Ancestors returns the parent chain of code, nearest first.
// The walk stops at a missing parent or a repeated code.
func (c *Chart) Ancestors(code string) []string {
	var chain []string
	seen := map[string]bool{code: true}
	acc, ok := c.accounts[code]
	for ok {
		p := acc.Parent()
		if p == "" || seen[p] {
			break
		}
		seen[p] = true
		chain = append(chain, p)
		acc, ok = c.accounts[p]
	}
	return chain
}

// Descendants returns every account below code, depth first.
func (c *Chart) Descendants(code string) []string {
	var out []string
	var walk func(string)
	walk = func(n string) {
		for _, child := range c.children[n] {
			out = append(out, child)
			walk(child)
		}
	}
	walk(code)
	return out
}

// Leaves returns code itself when it has no children, otherwise every
// childless descendant.
func (c *Chart) Leaves(code string) []string {
	if !c.IsControl(code) {
		return []string{code}
	}
	var out []string
	for _, d := range c.Descendants(code) {
		if !c.IsControl(d) {
			out = append(out, d)
		}
	}
	return out
}

// PostOrder lists every account with children before their parents.
func (c *Chart) PostOrder() []string {
	out := make([]string, 0, len(c.accounts))
	visited := make(map[string]bool, len(c.accounts))
	var visit func(string)
	visit = func(code string) {
		if visited[code] {
			return
		}
		visited[code] = true
		for _, child := range c.children[code] {
			visit(child)
		}
		out = append(out, code)
	}
	for _, code := range c.Codes() {
		visit(code)
	}
	return out
}

// Validate checks that every control account reference resolves and that
// no parent chain loops.
func (c *Chart) Validate() error {
	for _, code := range c.Codes() {
		p := c.accounts[code].Parent()
		if p == "" {
			continue
		}
		if _, ok := c.accounts[p]; !ok {
			return apperror.NewConstraintViolation("control_account_exists", "control account does not exist").
				WithDetail("account_code", code).
				WithDetail("control_account_code", p)
		}
	}

	const (
		white = iota
		grey
		black
	)
	state := make(map[string]int, len(c.accounts))
	for _, start := range c.Codes() {
		var path []string
		code := start
		for code != "" && state[code] == white {
			state[code] = grey
			path = append(path, code)
			code = c.accounts[code].Parent()
		}
		if code != "" && state[code] == grey {
			return apperror.NewConstraintViolation("acyclic_hierarchy", "control account chain contains a cycle").
				WithDetail("account_code", code)
		}
		for _, p := range path {
			state[p] = black
		}
	}
	return nil
}

// CheckPostingTarget applies the posting-target rule to an account snapshot.
func CheckPostingTarget(acc *Account, isControl bool) error {
	if isControl {
		return apperror.NewConstraintViolation("posting_account_only", "control account cannot receive journal lines").
			WithDetail("account_code", acc.Code)
	}
	if !acc.IsActive {
		return apperror.NewConstraintViolation("active_account_only", "account is inactive").
			WithDetail("account_code", acc.Code)
	}
	if !acc.IsPostingAccount {
		return apperror.NewConstraintViolation("posting_account_only", "account is not a posting account").
			WithDetail("account_code", acc.Code)
	}
	return nil
}
