package routeauth

// Role is a coarse tag describing who a route is meant for. It is carried on
// the rule for auditing and is not enforced by the resolver.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
	RolePublic Role = "public"
)

// RouteRule lists the capabilities a caller must hold before a request to the
// keyed path is allowed. All requirements combine as a strict AND.
type RouteRule struct {
	RequiresAuth       bool `json:"requires_auth"`
	RequiresOnboarding bool `json:"requires_onboarding"`
	RequiresFunding    bool `json:"requires_funding"`
	RequiresPayment    bool `json:"requires_payment"`
	Role               Role `json:"role"`
}

// Table is an immutable path → rule mapping. Built once at startup and never
// mutated afterwards; there is no runtime registration API.
type Table struct {
	rules map[string]RouteRule
}

// NewTable copies the given rules into an immutable table.
func NewTable(rules map[string]RouteRule) *Table {
	copied := make(map[string]RouteRule, len(rules))
	for k, v := range rules {
		copied[k] = v
	}
	return &Table{rules: copied}
}

// DefaultRule is the policy applied to paths with no matching rule:
// authentication only. Applied by the caller; the resolver itself reports
// "no match" as nil.
func DefaultRule() RouteRule {
	return RouteRule{RequiresAuth: true, Role: RoleUser}
}

// DefaultTable is the application's route map. Page routes are keyed exactly;
// /api/ routes also match by longest prefix on a path-segment boundary.
func DefaultTable() *Table {
	return NewTable(map[string]RouteRule{
		// Public pages
		"/":            {Role: RolePublic},
		"/auth/signin": {Role: RolePublic},
		"/auth/signup": {Role: RolePublic},

		// Authenticated pages
		"/onboarding": {RequiresAuth: true, Role: RoleUser},
		"/settings":   {RequiresAuth: true, Role: RoleUser},
		"/checkout":   {RequiresAuth: true, RequiresOnboarding: true, Role: RoleUser},
		"/funding":    {RequiresAuth: true, RequiresOnboarding: true, Role: RoleUser},

		// Paid product pages
		"/dashboard": {RequiresAuth: true, RequiresOnboarding: true, RequiresPayment: true, Role: RoleUser},
		"/portfolio": {RequiresAuth: true, RequiresOnboarding: true, RequiresPayment: true, Role: RoleUser},
		"/invest":    {RequiresAuth: true, RequiresOnboarding: true, RequiresPayment: true, Role: RoleUser},
		"/chat":      {RequiresAuth: true, RequiresOnboarding: true, RequiresPayment: true, Role: RoleUser},

		// Account and funding APIs. create-account is deliberately open to
		// callers who have not finished onboarding: it is part of onboarding.
		"/api/broker/create-account": {RequiresAuth: true, Role: RoleUser},
		"/api/broker/connect-bank":   {RequiresAuth: true, RequiresOnboarding: true, Role: RoleUser},
		"/api/broker/bank-status":    {RequiresAuth: true, RequiresOnboarding: true, Role: RoleUser},
		"/api/broker/transfer":       {RequiresAuth: true, RequiresOnboarding: true, Role: RoleUser},
		"/api/account/status":        {RequiresAuth: true, Role: RoleUser},
		"/api/account/audit":         {RequiresAuth: true, Role: RoleUser},

		// Portfolio APIs
		"/api/portfolio":           {RequiresAuth: true, RequiresOnboarding: true, Role: RoleUser},
		"/api/portfolio/positions": {RequiresAuth: true, RequiresOnboarding: true, Role: RoleUser},

		// Research / market data APIs
		"/api/fmp/chart": {RequiresAuth: true, Role: RoleUser},
		"/api/fmp":       {RequiresAuth: true, Role: RoleUser},
		"/api/news":      {RequiresAuth: true, Role: RoleUser},

		// Advisory features gated on the subscription
		"/api/chat":  {RequiresAuth: true, RequiresOnboarding: true, RequiresPayment: true, Role: RoleUser},
		"/api/trade": {RequiresAuth: true, RequiresOnboarding: true, RequiresFunding: true, RequiresPayment: true, Role: RoleUser},

		// System routes, verified by shared secret or provider signature
		"/api/health":          {Role: RolePublic},
		"/metrics":             {Role: RolePublic},
		"/api/webhooks/stripe": {Role: RoleSystem},
		"/api/cron/reconcile":  {Role: RoleSystem},
	})
}
