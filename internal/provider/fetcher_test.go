package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/weekwise/backend/internal/engine"
)

func TestFetchAll_MergesFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/work.ics":
			w.Write(ics(simpleEvent))
		case "/personal.ics":
			w.Write(ics(weeklyEvent))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	feeds := []Feed{
		{ID: "f-work", AccountID: "work", CalendarID: "work-main", URL: srv.URL + "/work.ics", CalendarType: engine.CalendarActive},
		{ID: "f-personal", AccountID: "personal", CalendarID: "personal-main", URL: srv.URL + "/personal.ics", CalendarType: engine.CalendarActive},
	}

	result := NewFetcher().FetchAll(context.Background(), feeds, marchRange())

	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if len(result.Events) != 5 {
		t.Fatalf("expected 5 merged events, got %d", len(result.Events))
	}
	for i := 1; i < len(result.Events); i++ {
		if result.Events[i].Start.Before(result.Events[i-1].Start) {
			t.Fatal("merged events must be sorted by start")
		}
	}
}

func TestFetchAll_IsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.ics" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write(ics(simpleEvent))
	}))
	defer srv.Close()

	feeds := []Feed{
		{ID: "f-bad", AccountID: "work", CalendarID: "broken", URL: srv.URL + "/bad.ics", CalendarType: engine.CalendarActive},
		{ID: "f-good", AccountID: "work", CalendarID: "work-main", URL: srv.URL + "/good.ics", CalendarType: engine.CalendarActive},
	}

	result := NewFetcher().FetchAll(context.Background(), feeds, marchRange())

	if len(result.Events) != 1 {
		t.Errorf("healthy feed must still merge, got %d events", len(result.Events))
	}
	if len(result.Failures) != 1 || result.Failures[0].FeedID != "f-bad" {
		t.Errorf("expected one failure for f-bad, got %v", result.Failures)
	}
}
