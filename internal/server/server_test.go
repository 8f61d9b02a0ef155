package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/fintrack-be/internal/auth"
	"github.com/hongminglow/fintrack-be/internal/llm"
	"github.com/hongminglow/fintrack-be/internal/models/dto"
	"github.com/hongminglow/fintrack-be/internal/storage/memory"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type stubRelay struct {
	reply string
	err   error
}

func (s stubRelay) Reply(_ context.Context, message string) (string, error) {
	if message == "" {
		return "", llm.ErrEmptyMessage
	}
	return s.reply, s.err
}

type client struct {
	t       *testing.T
	handler http.Handler
	token   string
	id      string
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.id != "" {
		req.Header.Set("X-Client-ID", c.id)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(c.t, json.NewDecoder(rec.Body).Decode(&env))
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func newTestHandler(relay stubRelay) http.Handler {
	tokens := auth.NewTokenManager("test-secret", "fintrack-test", time.Hour)
	now := func() time.Time { return time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC) }
	return Routes(memory.New(), tokens, relay, now)
}

func signup(t *testing.T, h http.Handler, email, password string) dto.LoginResponse {
	t.Helper()
	c := &client{t: t, handler: h}
	status, env := c.do(http.MethodPost, "/auth/signup", dto.SignupRequest{
		FullName: "Ada Lovelace", Email: email, Password: password, Confirm: password,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var out dto.LoginResponse
	decodeData(t, env, &out)
	require.NotEmpty(t, out.Token)
	return out
}

func TestSignupAndLoginErrors(t *testing.T) {
	h := newTestHandler(stubRelay{})
	c := &client{t: t, handler: h}
	signup(t, h, "ada@example.com", "correct-horse")

	cases := []struct {
		name    string
		path    string
		body    any
		status  int
		message string
	}{
		{"duplicate email", "/auth/signup", dto.SignupRequest{Email: "ADA@example.com", Password: "longenough", Confirm: "longenough"}, http.StatusConflict, "Email already in use."},
		{"mismatch", "/auth/signup", dto.SignupRequest{Email: "b@example.com", Password: "longenough", Confirm: "different1"}, http.StatusBadRequest, "Passwords do not match."},
		{"short password", "/auth/signup", dto.SignupRequest{Email: "b@example.com", Password: "short", Confirm: "short"}, http.StatusBadRequest, "Enter a valid email and at least 8 character password."},
		{"bad email", "/auth/login", dto.LoginRequest{Email: "nope", Password: "longenough"}, http.StatusBadRequest, "Enter a valid email and at least 8 character password."},
		{"unknown user", "/auth/login", dto.LoginRequest{Email: "ghost@example.com", Password: "longenough"}, http.StatusUnauthorized, "User not found."},
		{"wrong password", "/auth/login", dto.LoginRequest{Email: "ada@example.com", Password: "wrong-horse"}, http.StatusUnauthorized, "Incorrect password."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c.t = t
			status, env := c.do(http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.message, env.Message)
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := &client{t: t, handler: newTestHandler(stubRelay{})}
	for _, path := range []string{"/api/setup", "/api/finances", "/api/expenses", "/api/dashboard"} {
		status, _ := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
	c.token = "not-a-jwt"
	status, _ := c.do(http.MethodPost, "/api/chat", dto.ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestOnboardingToDashboard(t *testing.T) {
	h := newTestHandler(stubRelay{})
	login := signup(t, h, "ada@example.com", "correct-horse")
	assert.False(t, login.SetupComplete)
	c := &client{t: t, handler: h, token: login.Token, id: "browser-1"}

	status, _ := c.do(http.MethodGet, "/api/finances", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env := c.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	var empty dto.DashboardResponse
	decodeData(t, env, &empty)
	assert.False(t, empty.HasData)

	status, env = c.do(http.MethodGet, "/api/setup", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"state":"collecting_income"}`, string(env.Data))

	status, env = c.do(http.MethodPost, "/api/setup/income", map[string]any{"income": 2500, "savings": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please fill out both income and savings.", env.Message)

	status, env = c.do(http.MethodPost, "/api/setup/income", map[string]any{"income": 2500, "savings": "8000"})
	require.Equal(t, http.StatusOK, status)
	var step struct {
		State    string           `json:"state"`
		NetWorth *decimal.Decimal `json:"onboarding_net_worth"`
	}
	decodeData(t, env, &step)
	assert.Equal(t, "collecting_expenses", step.State)
	require.NotNil(t, step.NetWorth)
	assert.True(t, decimal.NewFromInt(38000).Equal(*step.NetWorth))

	status, env = c.do(http.MethodPost, "/api/setup/expenses", map[string]any{
		"expenses": map[string]any{"rent": "1200", "utilities": ""},
		"custom":   []map[string]any{{"label": "gym", "value": 50}, {"label": "", "value": 9}},
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var done dto.SetupCompleteResponse
	decodeData(t, env, &done)
	assert.Equal(t, dto.SetupCompleteResponse{Completed: true, Redirect: "/dashboard"}, done)

	status, env = c.do(http.MethodGet, "/api/setup", nil)
	assert.Equal(t, http.StatusConflict, status)
	decodeData(t, env, &done)
	assert.Equal(t, "/dashboard", done.Redirect)

	anon := &client{t: t, handler: h, id: "browser-1"}
	status, env = anon.do(http.MethodPost, "/auth/login", dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, status)
	var again dto.LoginResponse
	decodeData(t, env, &again)
	assert.True(t, again.SetupComplete)

	status, env = c.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	var dash dto.DashboardResponse
	decodeData(t, env, &dash)
	require.True(t, dash.HasData)
	require.NotNil(t, dash.Dashboard)
	d := dash.Dashboard
	assert.True(t, decimal.NewFromInt(1250).Equal(d.TotalExpenses))
	assert.True(t, decimal.NewFromInt(1250).Equal(d.MonthlyNet))
	assert.Equal(t, 2, d.RemainingMonths)
	assert.True(t, decimal.NewFromInt(10500).Equal(d.NetWorthEstimate))
	require.Len(t, d.Projection, 2)
	assert.Equal(t, "Nov", d.Projection[0].Label)
	assert.Equal(t, "Dec", d.Projection[1].Label)
	require.Len(t, d.Categories, 2)
	assert.Equal(t, "rent", d.Categories[0].Label)
	assert.Equal(t, "gym", d.Categories[1].Label)
}

func TestFinanceAndExpenseReplace(t *testing.T) {
	h := newTestHandler(stubRelay{})
	login := signup(t, h, "ada@example.com", "correct-horse")
	c := &client{t: t, handler: h, token: login.Token}

	c.do(http.MethodPost, "/api/setup/income", map[string]any{"income": "1", "savings": "1"})
	status, _ := c.do(http.MethodPost, "/api/setup/expenses", map[string]any{"expenses": map[string]any{}})
	require.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodPut, "/api/finances", map[string]any{"monthly_income": "3000", "total_savings": 100})
	require.Equal(t, http.StatusOK, status)

	status, env := c.do(http.MethodGet, "/api/finances", nil)
	require.Equal(t, http.StatusOK, status)
	var fin dto.FinancesResponse
	decodeData(t, env, &fin)
	assert.True(t, decimal.NewFromInt(3000).Equal(fin.MonthlyIncome))
	assert.True(t, decimal.NewFromInt(100).Equal(fin.TotalSavings))
	assert.True(t, decimal.NewFromInt(36100).Equal(fin.OnboardingNetWorth))

	status, env = c.do(http.MethodPut, "/api/expenses", map[string]any{"expenses": []map[string]any{
		{"category": "food", "amount": "10"},
		{"category": "", "amount": "5"},
		{"category": "books", "amount": "abc"},
	}})
	require.Equal(t, http.StatusOK, status)
	var saved dto.UpdateExpensesResponse
	decodeData(t, env, &saved)
	assert.Equal(t, 2, saved.Saved)

	status, env = c.do(http.MethodGet, "/api/expenses", nil)
	require.Equal(t, http.StatusOK, status)
	var exp dto.ExpensesResponse
	decodeData(t, env, &exp)
	require.Len(t, exp.Expenses, 2)
	assert.True(t, decimal.NewFromInt(10).Equal(exp.Total))
	assert.True(t, exp.Expenses[1].Amount.IsZero())
}

func TestSetupRejectsUnknownCategory(t *testing.T) {
	h := newTestHandler(stubRelay{})
	login := signup(t, h, "ada@example.com", "correct-horse")
	c := &client{t: t, handler: h, token: login.Token, id: "browser-2"}

	status, _ := c.do(http.MethodPost, "/api/setup/expenses", map[string]any{"expenses": map[string]any{}})
	assert.Equal(t, http.StatusConflict, status)

	c.do(http.MethodPost, "/api/setup/income", map[string]any{"income": "1", "savings": "1"})
	status, _ = c.do(http.MethodPost, "/api/setup/expenses", map[string]any{"expenses": map[string]any{"pets": "1"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env := c.do(http.MethodPost, "/api/setup/back", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"state":"collecting_income","income":"1","savings":"1"}`, string(env.Data))
}

func TestProfileUpdates(t *testing.T) {
	h := newTestHandler(stubRelay{})
	login := signup(t, h, "ada@example.com", "correct-horse")
	c := &client{t: t, handler: h, token: login.Token}
	signup(t, h, "taken@example.com", "correct-horse")

	status, env := c.do(http.MethodPut, "/auth/password", dto.UpdatePasswordRequest{Password: "123"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Password must be at least 6 characters.", env.Message)

	status, _ = c.do(http.MethodPut, "/auth/password", dto.UpdatePasswordRequest{Password: "new-password"})
	require.Equal(t, http.StatusOK, status)

	status, env = c.do(http.MethodPut, "/auth/email", dto.UpdateEmailRequest{Email: "taken@example.com"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already in use.", env.Message)

	status, _ = c.do(http.MethodPut, "/auth/email", dto.UpdateEmailRequest{Email: "ada@new.example.com"})
	require.Equal(t, http.StatusOK, status)

	anon := &client{t: t, handler: h}
	status, _ = anon.do(http.MethodPost, "/auth/login", dto.LoginRequest{Email: "ada@new.example.com", Password: "new-password"})
	assert.Equal(t, http.StatusOK, status)
	status, _ = anon.do(http.MethodPost, "/auth/login", dto.LoginRequest{Email: "ada@example.com", Password: "new-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestChat(t *testing.T) {
	cases := []struct {
		name    string
		relay   stubRelay
		message string
		status  int
		text    string
	}{
		{"reply", stubRelay{reply: "Save more."}, "tips?", http.StatusOK, ""},
		{"empty", stubRelay{}, "", http.StatusBadRequest, "Message is required."},
		{"upstream error", stubRelay{err: &llm.UpstreamError{Message: "Model is loading"}}, "hi", http.StatusInternalServerError, "Model is loading"},
		{"transport error", stubRelay{err: errors.New("dial tcp")}, "hi", http.StatusBadGateway, "inference request failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(tc.relay)
			login := signup(t, h, "ada@example.com", "correct-horse")
			c := &client{t: t, handler: h, token: login.Token}

			status, env := c.do(http.MethodPost, "/api/chat", dto.ChatRequest{Message: tc.message})
			assert.Equal(t, tc.status, status)
			if tc.status == http.StatusOK {
				var out dto.ChatResponse
				decodeData(t, env, &out)
				assert.Equal(t, "Save more.", out.Reply)
				return
			}
			assert.Equal(t, tc.text, env.Message)
		})
	}
}

func TestHugeExponentAmountsAreCoerced(t *testing.T) {
	h := newTestHandler(stubRelay{})
	login := signup(t, h, "ada@example.com", "correct-horse")
	c := &client{t: t, handler: h, token: login.Token}

	status, env := c.do(http.MethodPost, "/api/setup/income", map[string]any{"income": "1e10000000", "savings": "1e2000000000"})
	require.Equal(t, http.StatusOK, status)
	assert.Less(t, len(env.Data), 1024)
	var step struct {
		NetWorth decimal.Decimal `json:"onboarding_net_worth"`
	}
	decodeData(t, env, &step)
	assert.True(t, step.NetWorth.IsZero())

	status, _ = c.do(http.MethodPost, "/api/setup/expenses", map[string]any{"custom": []map[string]any{{"label": "x", "value": "9e999999"}}})
	require.Equal(t, http.StatusOK, status)

	status, env = c.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Less(t, len(env.Data), 2048)
}
