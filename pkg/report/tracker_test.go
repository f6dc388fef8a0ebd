package report

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrackerDeliverPostsComment(t *testing.T) {
	var gotBody map[string]string
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewTrackerClient(server.URL, "secret-token")
	if err := client.Deliver(context.Background(), "# report body"); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if gotBody["body"] != "# report body" {
		t.Errorf("posted body = %q, want report markdown", gotBody["body"])
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestTrackerDeliverErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewTrackerClient(server.URL, "")
	if err := client.Deliver(context.Background(), "body"); err == nil {
		t.Error("expected error on 403 response")
	}
}

func TestTrackerNilClientIsNoop(t *testing.T) {
	client := NewTrackerClient("", "")
	if client != nil {
		t.Fatal("empty URL should yield nil client")
	}
	if err := client.Deliver(context.Background(), "body"); err != nil {
		t.Errorf("nil client Deliver() error = %v, want nil", err)
	}
}
