package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReporterSendsToChat(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	r := NewReporter(NewBotAPI("token").WithBaseURL(srv.URL), "-100123")
	if err := r.Report(context.Background(), "💵 booking #1 paid"); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if got["chat_id"] != "-100123" || got["text"] != "💵 booking #1 paid" || got["parse_mode"] != "HTML" {
		t.Errorf("request = %v", got)
	}
}

func TestReporterAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	r := NewReporter(NewBotAPI("token").WithBaseURL(srv.URL), "-1")
	if err := r.Report(context.Background(), "x"); err == nil {
		t.Fatal("expected error for ok=false")
	}
}

func TestDisabledReporter(t *testing.T) {
	var nilReporter *Reporter
	for _, r := range []*Reporter{nilReporter, NewReporter(NewBotAPI(""), "-1"), NewReporter(NewBotAPI("t"), "")} {
		if r.Enabled() {
			t.Errorf("reporter %+v should be disabled", r)
		}
		if err := r.Report(context.Background(), "x"); err != nil {
			t.Errorf("disabled Report = %v", err)
		}
	}
}
