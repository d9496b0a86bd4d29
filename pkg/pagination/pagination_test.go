package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(query string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", DefaultLimit, 0},
		{"?limit=50&offset=10", 50, 10},
		{"?limit=500", MaxLimit, 0},
		{"?limit=-1", DefaultLimit, 0},
		{"?offset=-5", DefaultLimit, 0},
		{"?skip=30", DefaultLimit, 30},
		{"?offset=5&skip=30", DefaultLimit, 5},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := paramsFor(tt.query)
			if p.Limit != tt.limit || p.Offset != tt.offset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d", p.Limit, p.Offset, tt.limit, tt.offset)
			}
		})
	}
}

func TestParams_HasNext(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		total  int
		want   bool
	}{
		{"more results", Params{Limit: 10, Offset: 0}, 25, true},
		{"exact end", Params{Limit: 10, Offset: 15}, 25, false},
		{"past end", Params{Limit: 10, Offset: 30}, 25, false},
		{"no results", Params{Limit: 10, Offset: 0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.HasNext(tt.total); got != tt.want {
				t.Errorf("HasNext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]string{"a", "b", "c"}, 10, Params{Limit: 3, Offset: 0})
	if r.Total != 10 || !r.HasMore {
		t.Errorf("unexpected response %+v", r)
	}
	if r.NextOffset == nil || *r.NextOffset != 3 {
		t.Errorf("expected next offset 3, got %v", r.NextOffset)
	}

	last := NewResponse([]string{"a"}, 4, Params{Limit: 3, Offset: 3})
	if last.HasMore || last.NextOffset != nil {
		t.Errorf("expected final page without next offset, got %+v", last)
	}
}
