package pagination

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextFor(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(contextFor("/"))

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_Clamps(t *testing.T) {
	p := FromContext(contextFor("/?limit=500&offset=-3"))
	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected negative offset clamped to 0, got %d", p.Offset)
	}

	p = FromContext(contextFor("/?limit=5&offset=10"))
	if p.Limit != 5 || p.Offset != 10 {
		t.Errorf("expected 5/10, got %d/%d", p.Limit, p.Offset)
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]int{1, 2}, 5, Params{Limit: 2, Offset: 0})
	if !resp.HasMore {
		t.Error("expected has_more when offset+limit < total")
	}

	resp = NewResponse[int](nil, 0, Params{Limit: 2})
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Error("expected empty non-nil data")
	}
	if resp.HasMore {
		t.Error("expected no more results")
	}
}

func TestWithNext(t *testing.T) {
	c := contextFor("/api/v1/appointments?doctor_id=abc&limit=2")
	resp := NewResponse([]int{1, 2}, 5, Params{Limit: 2, Offset: 0}).WithNext(c)

	if !strings.HasPrefix(resp.Next, "/api/v1/appointments?") {
		t.Fatalf("unexpected next link %q", resp.Next)
	}
	for _, want := range []string{"doctor_id=abc", "offset=2", "limit=2"} {
		if !strings.Contains(resp.Next, want) {
			t.Errorf("expected next link to contain %s, got %s", want, resp.Next)
		}
	}

	last := NewResponse([]int{5}, 5, Params{Limit: 2, Offset: 4}).WithNext(c)
	if last.Next != "" {
		t.Errorf("expected no next link on last page, got %s", last.Next)
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := Page(items, Params{Limit: 2, Offset: 1}); len(got) != 2 || got[0] != 2 {
		t.Errorf("unexpected page %v", got)
	}
	if got := Page(items, Params{Limit: 10, Offset: 3}); len(got) != 2 {
		t.Errorf("expected tail of 2, got %v", got)
	}
	if got := Page(items, Params{Limit: 2, Offset: 9}); got != nil {
		t.Errorf("expected nil beyond end, got %v", got)
	}
}
