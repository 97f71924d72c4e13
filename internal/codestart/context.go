package codestart

import (
	"maps"
	"sort"
)

// RenderContext is the immutable variable mapping templates are expanded against.
type RenderContext struct {
	vars map[string]any
}

// NewRenderContext copies vars into a new context.
func NewRenderContext(vars map[string]any) RenderContext {
	return RenderContext{vars: maps.Clone(vars)}
}

// Get returns the value stored under key.
func (c RenderContext) Get(key string) (any, bool) {
	v, ok := c.vars[key]
	return v, ok
}

// String returns the value stored under key as a string, or "" when absent or not a string.
func (c RenderContext) String(key string) string {
	s, _ := c.vars[key].(string)
	return s
}

// Vars returns a copy of the variables, safe for the caller to hand to a template engine.
func (c RenderContext) Vars() map[string]any {
	return maps.Clone(c.vars)
}

// Keys returns the variable names in lexical order.
func (c RenderContext) Keys() []string {
	keys := make([]string, 0, len(c.vars))
	for k := range c.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
