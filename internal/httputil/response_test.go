package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body["error"]
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONError(w, http.StatusTeapot, "short and stout")

	if w.Code != http.StatusTeapot {
		t.Errorf("got status %d, want %d", w.Code, http.StatusTeapot)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("got Content-Type %q", ct)
	}
	if msg := decodeError(t, w); msg != "short and stout" {
		t.Errorf("got error %q", msg)
	}
}

func TestWriteJSONOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONOK(w, map[string]int{"n": 3})

	if w.Code != http.StatusOK {
		t.Errorf("got status %d, want 200", w.Code)
	}
	var body map[string]int
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["n"] != 3 {
		t.Errorf("got %v", body)
	}
}

func TestAccepted(t *testing.T) {
	w := httptest.NewRecorder()
	Accepted(w, map[string]string{"status": "queued"})
	if w.Code != http.StatusAccepted {
		t.Errorf("got status %d, want 202", w.Code)
	}
}

func TestWriteBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteBody(w, "image/svg+xml", []byte("<svg/>"))
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("got Content-Type %q", ct)
	}
	if w.Body.String() != "<svg/>" {
		t.Errorf("got body %q", w.Body.String())
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		msg    string
	}{
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed"},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad edge") }, http.StatusBadRequest, "bad edge"},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "boom") }, http.StatusInternalServerError, "boom"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no slot") }, http.StatusNotFound, "no slot"},
		{"unavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, "stopped") }, http.StatusServiceUnavailable, "stopped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			if w.Code != tt.status {
				t.Errorf("got status %d, want %d", w.Code, tt.status)
			}
			if msg := decodeError(t, w); msg != tt.msg {
				t.Errorf("got error %q, want %q", msg, tt.msg)
			}
		})
	}
}
