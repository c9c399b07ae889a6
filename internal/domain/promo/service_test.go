package promo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
)

var admin = auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin}

func TestService_Create(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	ctx := context.Background()

	p := &PromoCode{Code: " spring20 ", Percentage: 20, Active: true}
	require.NoError(t, svc.Create(ctx, admin, p))
	assert.Equal(t, "SPRING20", p.Code)

	err := svc.Create(ctx, admin, &PromoCode{Code: "SPRING20", Percentage: 5, Active: true})
	assert.True(t, apperr.IsKind(err, apperr.KindAlreadyExists), "got %v", err)

	err = svc.Create(ctx, admin, &PromoCode{Code: "TOOMUCH", Percentage: 101})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)

	patient := auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
	err = svc.Create(ctx, patient, &PromoCode{Code: "MINE", Percentage: 100})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized), "got %v", err)
}

func TestService_Seed(t *testing.T) {
	repo := newMockRepo(&PromoCode{Code: "HALF50", Percentage: 40, Active: false})
	svc := NewService(repo, zerolog.Nop())

	require.NoError(t, svc.Seed(context.Background(), map[string]int{"free100": 100, "HALF50": 50}))

	pct, err := svc.Evaluator().Evaluate(context.Background(), "FREE100")
	require.NoError(t, err)
	assert.Equal(t, 100, pct)

	pct, err = svc.Evaluator().Evaluate(context.Background(), "half50")
	require.NoError(t, err)
	assert.Equal(t, 50, pct, "expected seeding to replace an existing code")
}

func TestService_Evaluate_EmptyCode(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	_, err := svc.Evaluate(context.Background(), "  ")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
}

func TestHandler_Evaluate(t *testing.T) {
	h := NewHandler(NewService(newMockRepo(&PromoCode{Code: "FREE100", Percentage: 100, Active: true}), zerolog.Nop()))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("code")
	c.SetParamValues("free100")

	require.NoError(t, h.Evaluate(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"percentage":100`)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("code")
	c.SetParamValues("MISSING")
	err := h.Evaluate(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestHandler_Create_DefaultsActive(t *testing.T) {
	repo := newMockRepo()
	h := NewHandler(NewService(repo, zerolog.Nop()))
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"WELCOME10","percentage":10}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), admin))
	rec := httptest.NewRecorder()

	require.NoError(t, h.Create(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, repo.codes, "WELCOME10")
	assert.True(t, repo.codes["WELCOME10"].Active)
}
