package routeauth

import "strings"

// Resolver maps request paths to route rules. Pure lookup over the immutable
// table: no I/O, deterministic, and total. Any string input returns either a
// rule or nil, never a panic.
type Resolver struct {
	table *Table
}

func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve returns the rule for path, or nil when no rule matches. Exact
// matches always win. /api/ paths additionally match the longest configured
// /api/ prefix, but only on a path-segment boundary: /api/fmp/chart matches
// /api/fmp/chart/AAPL and never /api/fmp/chartmalicious. Callers apply
// DefaultRule when nil is returned.
func (r *Resolver) Resolve(path string) *RouteRule {
	if r == nil || r.table == nil || path == "" {
		return nil
	}

	if rule, ok := r.table.rules[path]; ok {
		return &rule
	}

	if !strings.HasPrefix(path, "/api/") {
		return nil
	}

	var (
		best    RouteRule
		bestLen = -1
	)
	for key, rule := range r.table.rules {
		if !strings.HasPrefix(key, "/api/") {
			continue
		}
		if !strings.HasPrefix(path, key+"/") {
			continue
		}
		if len(key) > bestLen {
			best = rule
			bestLen = len(key)
		}
	}
	if bestLen < 0 {
		return nil
	}
	return &best
}
