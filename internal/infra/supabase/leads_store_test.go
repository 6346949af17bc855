package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/resilience"
	"github.com/bfcgroup/portal-api-go/internal/infra/supabase"

	"go.uber.org/zap"
)

func newTestClient(baseURL string) *supabase.Client {
	cfg := resilience.Config{
		MaxRetries:     0,
		InitialBackoff: time.Millisecond,
		MaxConcurrency: 4,
	}
	return supabase.NewClient(
		&http.Client{Timeout: 5 * time.Second},
		baseURL,
		"anon-key",
		"service-key",
		resilience.NewCircuitBreaker("test"),
		cfg,
		zap.NewNop(),
	)
}

func TestListLeads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/leads_management" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("order") != "sales_id.desc" {
			t.Errorf("expected order=sales_id.desc, got %s", r.URL.RawQuery)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Error("expected the apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer service-key" {
			t.Error("expected the service role bearer")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"sales_id": "BFC-2", "account": "Globex", "status": "upsell", "amount": 2000.0, "probability": 20},
			{"sales_id": "BFC-1", "account": "Acme", "status": "new", "amount": 1000.0, "probability": 10, "vendor": "Dell"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	leads, err := client.ListLeads(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	if leads[0].SalesID != "BFC-2" {
		t.Errorf("expected store order preserved, got %+v", leads)
	}
	if leads[1].Vendor != "Dell" {
		t.Errorf("expected vendor mapped, got '%s'", leads[1].Vendor)
	}
}

func TestListLeads_EmptyTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	leads, err := client.ListLeads(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(leads) != 0 {
		t.Errorf("expected no leads, got %d", len(leads))
	}
}

func TestCreateLead_ReturnsRepresentation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Error("expected Prefer: return=representation")
		}
		var row map[string]any
		json.NewDecoder(r.Body).Decode(&row)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode([]map[string]any{row})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	created, err := client.CreateLead(context.Background(), &domain.Lead{
		SalesID: "BFC-1", Account: "Acme", Status: "new", Amount: 1000, Probability: 10,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.SalesID != "BFC-1" {
		t.Errorf("expected the stored row back, got %+v", created)
	}
}

func TestUpdateLead_NoMatchIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.UpdateLead(context.Background(), "BFC-absent", map[string]any{"status": "contacted"})

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteLead_AbsentSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.DeleteLead(context.Background(), "BFC-absent"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestListLeads_ServerErrorIsExternalServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ListLeads(context.Background())

	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Errorf("expected ErrExternalService, got %v", err)
	}
}
