package openfda

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const ibuprofenLabel = `{
	"meta": {"results": {"skip": 0, "limit": 1, "total": 12}},
	"results": [{
		"id": "123456",
		"set_id": "abc",
		"openfda": {"generic_name": ["IBUPROFEN"], "brand_name": ["Advil"]},
		"indications_and_usage": ["temporarily relieves minor aches and pains"],
		"warnings": ["Stomach bleeding warning"],
		"do_not_use": ["if you have ever had an allergic reaction to any other pain reliever"]
	}]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, RequestsPerSecond: 100}, zerolog.Nop())
}

func TestFindByGenericName_Found(t *testing.T) {
	var gotSearch, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drug/label.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotSearch = r.URL.Query().Get("search")
		gotKey = r.URL.Query().Get("api_key")
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("expected limit=1, got %s", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(ibuprofenLabel))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "k1"}, zerolog.Nop())
	label, ok := c.FindByGenericName(context.Background(), "ibuprofen")
	if !ok {
		t.Fatal("expected label to be found")
	}
	if gotSearch != `openfda.generic_name:"ibuprofen"` {
		t.Errorf("unexpected search %q", gotSearch)
	}
	if gotKey != "k1" {
		t.Errorf("expected api key to be sent, got %q", gotKey)
	}
	if label.ID != "123456" {
		t.Errorf("expected id 123456, got %s", label.ID)
	}
	if label.DisplayName() != "IBUPROFEN" {
		t.Errorf("unexpected display name %q", label.DisplayName())
	}
	if label.Indication() != "temporarily relieves minor aches and pains" {
		t.Errorf("unexpected indication %q", label.Indication())
	}
	if len(label.DoNotUse) != 1 {
		t.Errorf("expected do_not_use section, got %v", label.DoNotUse)
	}
}

func TestFindByGenericName_Misses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found body", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"No matches found!"}}`))
		}},
		{"empty results", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"meta":{"results":{"total":0}},"results":[]}`))
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"bare 404", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results": [`))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			c := NewClient(Config{BaseURL: srv.URL, Timeout: 200 * time.Millisecond, RequestsPerSecond: 100}, zerolog.Nop())

			label, ok := c.FindByGenericName(context.Background(), "asdkjh")
			if ok || label != nil {
				t.Errorf("expected miss, got %+v", label)
			}
		})
	}
}

func TestFindByGenericName_EmptyNameSkipsRequest(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	if _, ok := c.FindByGenericName(context.Background(), "  "); ok {
		t.Error("expected miss for empty name")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("expected no outbound request")
	}
}

func TestFindByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Query().Get("search"), `id:"`) {
			t.Errorf("unexpected search %q", r.URL.Query().Get("search"))
		}
		if r.URL.Query().Get("search") == `id:"123456"` {
			w.Write([]byte(ibuprofenLabel))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"No matches found!"}}`))
	})

	label, err := c.FindByID(context.Background(), "123456")
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if label.ID != "123456" {
		t.Errorf("unexpected label id %s", label.ID)
	}

	if _, err := c.FindByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByID_PropagatesUpstreamErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.FindByID(context.Background(), "123456")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected upstream error, got %v", err)
	}
}

func TestFieldQuery_StripsQuotes(t *testing.T) {
	if got := fieldQuery("id", ` a"b `); got != `id:"ab"` {
		t.Errorf("unexpected query %q", got)
	}
}

func TestLabel_DisplayNameFallsBackToBrand(t *testing.T) {
	l := &Label{OpenFDA: OpenFDA{BrandName: []string{"Tylenol"}}}
	if l.DisplayName() != "Tylenol" {
		t.Errorf("expected brand fallback, got %q", l.DisplayName())
	}
	if (&Label{}).DisplayName() != "" {
		t.Error("expected empty name for bare label")
	}
}
