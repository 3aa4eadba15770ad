package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/app/apptest"
	"bistro/internal/core/apperror"
	"bistro/internal/domain/auth"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/inventory"
	v1 "bistro/internal/infrastructure/http/v1"
	"bistro/internal/infrastructure/http/v1/middleware"
	"bistro/pkg/logger"
)

const adminPassword = "admin-password"

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type orderBody struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Status string `json:"status"`
	Total  string `json:"total"`
}

type apiSuite struct {
	*apptest.Env
	router *gin.Engine

	milk   *inventory.Material
	latte  *catalog.Product
	cookie *http.Cookie
}

func newAPI(t *testing.T) *apiSuite {
	t.Helper()
	env := apptest.New(t)
	_, err := env.Services.Auth.EnsureAdmin(env.Ctx, "admin", adminPassword)
	require.NoError(t, err)

	s := &apiSuite{
		Env:    env,
		router: v1.NewRouter(v1.RouterConfig{Services: env.Services, Logger: logger.Nop()}),
	}
	s.milk = env.Material("Milk", "1000", "0.002")
	s.latte = env.Product("Latte", "4.00", apptest.Uses(s.milk, "200"))
	s.cookie = s.login(t, "admin", adminPassword)
	return s
}

func (s *apiSuite) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := s.do(nil, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username, "password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatalf("login did not set %s", middleware.SessionCookie)
	return nil
}

func (s *apiSuite) do(cookie *http.Cookie, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (s *apiSuite) latteOrder(qty int) map[string]any {
	return map[string]any{
		"type":  "takeaway",
		"items": []map[string]any{{"productId": s.latte.ID.String(), "quantity": qty}},
	}
}

func TestLogin_SetsHttpOnlyCookie(t *testing.T) {
	s := newAPI(t)
	assert.True(t, s.cookie.HttpOnly)
	assert.NotEmpty(t, s.cookie.Value)

	rec := s.do(s.cookie, http.MethodGet, "/api/v1/auth/me", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Username string `json:"username"`
		IsAdmin  bool   `json:"isAdmin"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &me))
	assert.Equal(t, "admin", me.Username)
	assert.True(t, me.IsAdmin)

	// Bearer works too.
	rec = s.do(nil, http.MethodGet, "/api/v1/auth/me", nil, http.Header{"Authorization": {"Bearer " + s.cookie.Value}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newAPI(t)
	rec := s.do(nil, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "nope-nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.OK)
	assert.Equal(t, apperror.CodeUnauthorized, body.Error.Code)
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	s := newAPI(t)

	rec := s.do(nil, http.MethodGet, "/api/v1/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(&http.Cookie{Name: middleware.SessionCookie, Value: "forged"}, http.MethodGet, "/api/v1/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(s.cookie, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(s.cookie, http.MethodGet, "/api/v1/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPermissions_Enforced(t *testing.T) {
	s := newAPI(t)
	waiter := auth.NewRole("waiter", []string{auth.PermOrdersRead, auth.PermOrdersWrite})
	require.NoError(t, s.Services.Roles.Create(s.Ctx, waiter))
	_, err := s.Services.Auth.CreateUser(s.Ctx, auth.UserInput{Username: "sam", Password: "waiter-pass", RoleID: waiter.ID})
	require.NoError(t, err)
	cookie := s.login(t, "sam", "waiter-pass")

	rec := s.do(cookie, http.MethodPost, "/api/v1/orders", s.latteOrder(1), nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(cookie, http.MethodGet, "/api/v1/materials", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, apperror.CodeForbidden, body.Error.Code)
	assert.Equal(t, auth.PermInventoryRead, body.Error.Details["required_permission"])

	rec = s.do(cookie, http.MethodGet, "/api/v1/backup", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrders_CreateAndDeliver(t *testing.T) {
	s := newAPI(t)

	rec := s.do(s.cookie, http.MethodPost, "/api/v1/orders", s.latteOrder(2), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created orderBody
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.Equal(t, "PREPARING", created.Status)
	assert.Regexp(t, `^ORD-\d{6}-[A-HJ-NP-Z2-9]{4}$`, created.Code)
	assert.Equal(t, "8", created.Total)
	s.RequireStock(s.milk.ID, "600")

	rec = s.do(s.cookie, http.MethodPatch, "/api/v1/orders/"+created.ID, map[string]any{"status": "delivered"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(s.cookie, http.MethodPatch, "/api/v1/orders/"+created.ID, map[string]any{"status": "cancelled"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.CodeOrderFinalized, decode(t, rec).Error.Code)

	rec = s.do(s.cookie, http.MethodGet, "/api/v1/sales?orderId="+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sales struct {
		Items []struct {
			Status string `json:"status"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &sales))
	require.Len(t, sales.Items, 1)
	assert.Equal(t, "PAID", sales.Items[0].Status)
}

func TestOrders_InsufficientStockEnvelope(t *testing.T) {
	s := newAPI(t)

	rec := s.do(s.cookie, http.MethodPost, "/api/v1/orders", s.latteOrder(6), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.OK)
	require.NotNil(t, body.Error)
	assert.Equal(t, apperror.CodeInsufficientStock, body.Error.Code)
	assert.Equal(t, s.milk.ID.String(), body.Error.Details["material_id"])
	s.RequireStock(s.milk.ID, "1000")
}

func TestIdempotency_ReplaysResponse(t *testing.T) {
	s := newAPI(t)
	header := http.Header{middleware.HeaderIdempotencyKey: {"order-42"}}

	first := s.do(s.cookie, http.MethodPost, "/api/v1/orders", s.latteOrder(1), header)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	second := s.do(s.cookie, http.MethodPost, "/api/v1/orders", s.latteOrder(1), header)
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))

	var a, b orderBody
	require.NoError(t, json.Unmarshal(decode(t, first).Data, &a))
	require.NoError(t, json.Unmarshal(decode(t, second).Data, &b))
	assert.Equal(t, a.ID, b.ID)
	s.RequireStock(s.milk.ID, "800")

	// Same key with another body is a conflict, not a replay.
	third := s.do(s.cookie, http.MethodPost, "/api/v1/orders", s.latteOrder(2), header)
	assert.Equal(t, http.StatusConflict, third.Code, third.Body.String())
	s.RequireStock(s.milk.ID, "800")
}

func TestUnknownRouteAndBadID(t *testing.T) {
	s := newAPI(t)

	rec := s.do(s.cookie, http.MethodGet, "/api/v1/nowhere", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperror.CodeNotFound, decode(t, rec).Error.Code)

	rec = s.do(s.cookie, http.MethodGet, "/api/v1/orders/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.CodeInvalidInput, decode(t, rec).Error.Code)
}

func TestHealth(t *testing.T) {
	s := newAPI(t)
	assert.Equal(t, http.StatusOK, s.do(nil, http.MethodGet, "/health/live", nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(nil, http.MethodGet, "/health/ready", nil, nil).Code)
}
