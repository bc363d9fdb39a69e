package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/clera-dev/clera-gateway/internal/routeauth"
)

type fakeStates struct {
	state routeauth.CallerState
	calls int
}

func (f *fakeStates) FetchCallerState(_ context.Context, _ string, authenticated bool) routeauth.CallerState {
	f.calls++
	s := f.state
	s.Authenticated = authenticated
	return s
}

func newAccessRouter(states *fakeStates, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(ContextUserKey, userID)
		}
		c.Next()
	})
	r.Use(AccessControl(routeauth.NewResolver(routeauth.DefaultTable()), states))
	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func doReq(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestAccessUnauthenticatedAPI(t *testing.T) {
	states := &fakeStates{}
	r := newAccessRouter(states, "")

	w := doReq(r, "/api/portfolio/positions")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "authentication required")
}

func TestAccessUnauthenticatedPageRedirects(t *testing.T) {
	states := &fakeStates{}
	r := newAccessRouter(states, "")

	w := doReq(r, "/dashboard")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/auth/signin?next=%2Fdashboard", w.Header().Get("Location"))
}

func TestAccessOnboardingIncompletePage(t *testing.T) {
	inProgress := "in_progress"
	states := &fakeStates{state: routeauth.CallerState{Onboarding: &inProgress}}
	r := newAccessRouter(states, "user-1")

	w := doReq(r, "/portfolio")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/onboarding", w.Header().Get("Location"))
}

func TestAccessCreateAccountAllowedDuringOnboarding(t *testing.T) {
	states := &fakeStates{}
	r := newAccessRouter(states, "user-1")

	w := doReq(r, "/api/broker/create-account")
	require.Equal(t, http.StatusOK, w.Code)
	// Auth-only rule, so the status fetch is skipped entirely.
	require.Equal(t, 0, states.calls)
}

func TestAccessPaymentIndeterminatePageFailsOpen(t *testing.T) {
	approved := "approved"
	states := &fakeStates{state: routeauth.CallerState{Onboarding: &approved}}
	r := newAccessRouter(states, "user-1")

	w := doReq(r, "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1", w.Header().Get(HeaderStatusDegraded))
}

func TestAccessFundingIndeterminateAPIFailsClosed(t *testing.T) {
	approved := "approved"
	active := true
	states := &fakeStates{state: routeauth.CallerState{
		Onboarding: &approved,
		Payment:    &active,
	}}
	r := newAccessRouter(states, "user-1")

	w := doReq(r, "/api/trade")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAccessFullyQualifiedTrade(t *testing.T) {
	approved := "approved"
	yes := true
	states := &fakeStates{state: routeauth.CallerState{
		Onboarding:        &approved,
		Payment:           &yes,
		Funded:            &yes,
		ConnectedAccounts: &yes,
	}}
	r := newAccessRouter(states, "user-1")

	w := doReq(r, "/api/trade")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAccessUnmatchedPathDefaultsToAuthOnly(t *testing.T) {
	states := &fakeStates{}

	w := doReq(newAccessRouter(states, ""), "/api/unknown/thing")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doReq(newAccessRouter(states, "user-1"), "/api/unknown/thing")
	require.Equal(t, http.StatusOK, w.Code)
}
