package transform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adeniyi-Bella/admina-backend/internal/queue"
)

func TestTransformPostsEntry(t *testing.T) {
	var got queue.Entry
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte("translated bytes"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Minute)
	entry := queue.Entry{JobID: "job-1", DocumentID: "doc-1", Principal: "alice@x.com", Operation: "translate", TargetLang: "de"}
	out, err := c.Transform(context.Background(), entry)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if string(out) != "translated bytes" {
		t.Fatalf("output = %q", out)
	}
	if got.JobID != "job-1" || got.TargetLang != "de" {
		t.Fatalf("service saw %+v", got)
	}
}

func TestTransformNonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Minute)
	if _, err := c.Transform(context.Background(), queue.Entry{JobID: "job-1"}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
