package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/athletiq/socialgraph/internal/handlers"
)

func TestIdentity_ExtractsHeader(t *testing.T) {
	athleteID := uuid.New()
	var got uuid.UUID
	var ok bool
	handler := NewIdentity().Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = handlers.AthleteID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.Header.Set(AthleteIDHeader, athleteID.String())
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !ok || got != athleteID {
		t.Fatalf("expected athlete id %v in context, got %v (ok=%v)", athleteID, got, ok)
	}
}

func TestIdentity_MissingHeaderIsAnonymous(t *testing.T) {
	var ok bool
	handler := NewIdentity().Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = handlers.AthleteID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/feed", nil))

	if ok {
		t.Fatal("expected no athlete id for anonymous request")
	}
}

func TestIdentity_UnparseableHeaderIsAnonymous(t *testing.T) {
	var ok bool
	handler := NewIdentity().Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = handlers.AthleteID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.Header.Set(AthleteIDHeader, "not-a-uuid")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if ok {
		t.Fatal("expected unparseable id to proceed anonymously")
	}
}
