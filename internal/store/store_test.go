package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/happyrobot-antonio/rechazos/internal/client"
	"github.com/happyrobot-antonio/rechazos/internal/rejection/domain"
)

type fakeServer struct {
	mu        sync.Mutex
	cases     map[string]domain.Case
	listCalls int
	failList  bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{cases: make(map[string]domain.Case)}
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /cases", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listCalls++

		if f.failList {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "db down"})
			return
		}

		out := make([]domain.Case, 0, len(f.cases))
		for _, c := range f.cases {
			out = append(out, c)
		}
		json.NewEncoder(w).Encode(map[string]any{"cases": out, "total": len(out)})
	})

	mux.HandleFunc("GET /cases/{codigoSC}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		c, ok := f.cases[r.PathValue("codigoSC")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "case not found"})
			return
		}
		json.NewEncoder(w).Encode(c)
	})

	mux.HandleFunc("POST /cases/{codigoSC}/events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		codigoSC := r.PathValue("codigoSC")
		c, ok := f.cases[codigoSC]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var in client.CreateEventInput
		json.NewDecoder(r.Body).Decode(&in)

		event := domain.NewTimelineEvent(codigoSC, domain.TimelineEventType(in.Type), in.Description, in.Metadata)
		c.Events = append(c.Events, event)
		f.cases[codigoSC] = c

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(event)
	})

	mux.HandleFunc("POST /cases/{codigoSC}/delete", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		delete(f.cases, r.PathValue("codigoSC"))
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func newTestStore(t *testing.T) (*Store, *fakeServer, func()) {
	t.Helper()
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	return New(client.NewWithBaseURL(srv.URL)), fake, srv.Close
}

// TestRefresh tests that refresh replaces local state from the server
func TestRefresh(t *testing.T) {
	st, fake, closeSrv := newTestStore(t)
	defer closeSrv()

	fake.cases["SC001"] = domain.Case{CodigoSC: "SC001", NombreApellidos: "Ana García"}

	if err := st.Refresh(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	c, ok := st.Lookup("SC001")
	if !ok {
		t.Fatal("Expected SC001 in store")
	}
	if c.NombreApellidos != "Ana García" {
		t.Errorf("Expected Ana García, got %s", c.NombreApellidos)
	}
	if st.Len() != 1 {
		t.Errorf("Expected 1 case, got %d", st.Len())
	}
}

// TestRefreshError tests that a failed foreground refresh surfaces
func TestRefreshError(t *testing.T) {
	st, fake, closeSrv := newTestStore(t)
	defer closeSrv()

	fake.failList = true

	if err := st.Refresh(context.Background()); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if st.Err() == nil {
		t.Error("Expected last error to be recorded")
	}

	// A later successful refresh clears it
	fake.failList = false
	if err := st.Refresh(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if st.Err() != nil {
		t.Errorf("Expected error cleared, got %v", st.Err())
	}
}

// TestAppendEvent tests that appending re-fetches the merged case
func TestAppendEvent(t *testing.T) {
	st, fake, closeSrv := newTestStore(t)
	defer closeSrv()

	fake.cases["SC001"] = domain.Case{CodigoSC: "SC001"}

	ctx := context.Background()
	if err := st.Refresh(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	updated, err := st.AppendEvent(ctx, "SC001", client.CreateEventInput{
		Type:        string(domain.EventEmailSent),
		Description: "Email enviado al cliente",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(updated.Events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(updated.Events))
	}
	if updated.Events[0].Type != domain.EventEmailSent {
		t.Errorf("Expected %s, got %s", domain.EventEmailSent, updated.Events[0].Type)
	}

	// Local view holds the merged case
	c, _ := st.Lookup("SC001")
	if len(c.Events) != 1 {
		t.Errorf("Expected merged event list in store, got %d events", len(c.Events))
	}
}

// TestAppendEventUnknownCase tests the not-found path
func TestAppendEventUnknownCase(t *testing.T) {
	st, _, closeSrv := newTestStore(t)
	defer closeSrv()

	_, err := st.AppendEvent(context.Background(), "SC404", client.CreateEventInput{
		Type: string(domain.EventEmailSent),
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	apiErr, ok := err.(*client.APIError)
	if !ok {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", apiErr.StatusCode)
	}
}

// TestDelete tests removal from server and local view
func TestDelete(t *testing.T) {
	st, fake, closeSrv := newTestStore(t)
	defer closeSrv()

	fake.cases["SC001"] = domain.Case{CodigoSC: "SC001"}

	ctx := context.Background()
	if err := st.Refresh(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := st.Delete(ctx, "SC001"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, ok := st.Lookup("SC001"); ok {
		t.Error("Expected SC001 removed from store")
	}
	if _, ok := fake.cases["SC001"]; ok {
		t.Error("Expected SC001 removed server-side")
	}
}

// TestKeys tests the sorted key listing
func TestKeys(t *testing.T) {
	st, fake, closeSrv := newTestStore(t)
	defer closeSrv()

	fake.cases["SC003"] = domain.Case{CodigoSC: "SC003"}
	fake.cases["SC001"] = domain.Case{CodigoSC: "SC001"}
	fake.cases["SC002"] = domain.Case{CodigoSC: "SC002"}

	if err := st.Refresh(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	keys := st.Keys()
	if len(keys) != 3 || keys[0] != "SC001" || keys[2] != "SC003" {
		t.Errorf("Unexpected keys: %v", keys)
	}
}
