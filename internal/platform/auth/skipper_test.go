package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAuthSkipper(t *testing.T) {
	cases := map[string]bool{
		"/health":              true,
		"/health/db":           true,
		"/api/v1/appointments": false,
		"/api/v1/doctors/:id":  false,
		"/health/extra":        false,
		"/":                    false,
	}
	for path, want := range cases {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
		c.SetPath(path)
		if got := AuthSkipper(c); got != want {
			t.Errorf("AuthSkipper(%s) = %v, want %v", path, got, want)
		}
	}
}
