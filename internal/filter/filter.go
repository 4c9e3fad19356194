// Package filter drops catalog items matching a configured expression, e.g.
// `title contains "Demo"` or `platform == "giveaways" and url matches "beta"`.
package filter

import (
	"fmt"
	"strings"

	"github.com/bakkerme/freegame-alerts/internal/core"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type Filter struct {
	source  string
	program *vm.Program
}

// Compile parses rule against the item environment. An empty rule yields a
// nil Filter, which drops nothing.
func Compile(rule string) (*Filter, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, nil
	}
	program, err := expr.Compile(rule, expr.Env(env(core.ItemDescriptor{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", rule, err)
	}
	return &Filter{source: rule, program: program}, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Drop reports whether item matches the rule.
func (f *Filter) Drop(item core.ItemDescriptor) (bool, error) {
	if f == nil {
		return false, nil
	}
	result, err := expr.Run(f.program, env(item))
	if err != nil {
		return false, fmt.Errorf("run filter %q: %w", f.source, err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q did not return bool", f.source)
	}
	return matched, nil
}

func env(item core.ItemDescriptor) map[string]interface{} {
	return map[string]interface{}{
		"id":        item.ID,
		"title":     item.Title,
		"platform":  string(item.Platform),
		"url":       item.URL,
		"thumbnail": item.ThumbnailURL,
	}
}
