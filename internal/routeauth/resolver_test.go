package routeauth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	return NewTable(map[string]RouteRule{
		"/portfolio":               {RequiresAuth: true, RequiresOnboarding: true, RequiresPayment: true},
		"/api/portfolio":           {RequiresAuth: true, Role: RoleUser},
		"/api/portfolio/positions": {RequiresAuth: true, RequiresOnboarding: true, Role: RoleUser},
		"/api/fmp/chart":           {RequiresAuth: true, Role: RoleUser},
		"/api/health":              {Role: RolePublic},
	})
}

func TestResolveExactMatchWins(t *testing.T) {
	r := NewResolver(testTable())

	// /api/portfolio/positions is both an exact key and a prefix-extension of
	// /api/portfolio; the exact rule must win.
	rule := r.Resolve("/api/portfolio/positions")
	require.NotNil(t, rule)
	require.True(t, rule.RequiresOnboarding)
}

func TestResolveLongestPrefixWins(t *testing.T) {
	r := NewResolver(testTable())

	rule := r.Resolve("/api/portfolio/positions/detail")
	require.NotNil(t, rule)
	require.True(t, rule.RequiresOnboarding, "expected /api/portfolio/positions rule, got the shorter prefix")
}

func TestResolvePrefixRequiresSeparator(t *testing.T) {
	r := NewResolver(testTable())

	if rule := r.Resolve("/api/fmp/chartmalicious"); rule != nil {
		t.Fatalf("string-prefix without a path separator must not match, got %+v", rule)
	}
	require.NotNil(t, r.Resolve("/api/fmp/chart/AAPL"))
}

func TestResolveNoPrefixMatchForPages(t *testing.T) {
	r := NewResolver(testTable())

	// Prefix matching applies to /api/ paths only.
	if rule := r.Resolve("/portfolio/history"); rule != nil {
		t.Fatalf("page paths must not prefix-match, got %+v", rule)
	}
}

func TestResolveTotality(t *testing.T) {
	r := NewResolver(testTable())

	require.Nil(t, r.Resolve(""))
	require.Nil(t, r.Resolve("/api/unknown/route"))
	require.Nil(t, r.Resolve("/nowhere"))
	require.Nil(t, (*Resolver)(nil).Resolve("/api/portfolio"))
	require.Nil(t, NewResolver(nil).Resolve("/api/portfolio"))
}

func TestResolveDoesNotExposeTableMutation(t *testing.T) {
	r := NewResolver(testTable())

	first := r.Resolve("/api/health")
	require.NotNil(t, first)
	first.RequiresAuth = true

	second := r.Resolve("/api/health")
	require.NotNil(t, second)
	require.False(t, second.RequiresAuth, "mutating a resolved rule must not affect the table")
}

func TestDefaultTableScenarios(t *testing.T) {
	r := NewResolver(DefaultTable())

	createAccount := r.Resolve("/api/broker/create-account")
	require.NotNil(t, createAccount)
	require.True(t, createAccount.RequiresAuth)
	require.False(t, createAccount.RequiresOnboarding)

	positions := r.Resolve("/api/portfolio/positions")
	require.NotNil(t, positions)
	require.True(t, positions.RequiresOnboarding)

	transfer := r.Resolve("/api/broker/transfer")
	require.NotNil(t, transfer)
	require.False(t, transfer.RequiresFunding, "transfers create funding; funding must not gate them")
}
