package testutil

import (
	"io"
	"net/http"
	"testing"
)

func TestAssertStatusCode(t *testing.T) {
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
}

func TestAssertStatusCode_FailurePath(t *testing.T) {
	ok := t.Run("status mismatch", func(t *testing.T) {
		inner := &testing.T{}
		AssertStatusCode(inner, http.StatusOK, http.StatusNotFound)
		if !inner.Failed() {
			t.Error("expected mismatch to fail")
		}
	})
	if !ok {
		t.Fatal("subtest failed")
	}
}

func TestNewJSONRequest(t *testing.T) {
	req := NewJSONRequest(t, http.MethodPost, "/api/click", map[string]float64{"lon": 1})
	if req.Method != http.MethodPost || req.URL.Path != "/api/click" {
		t.Fatalf("got %s %s", req.Method, req.URL.Path)
	}
	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"lon":1}` {
		t.Errorf("body = %s", body)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}

	raw := NewJSONRequest(t, http.MethodPost, "/x", "{bad")
	body, _ = io.ReadAll(raw.Body)
	if string(body) != "{bad" {
		t.Errorf("raw body = %s", body)
	}

	empty := NewJSONRequest(t, http.MethodGet, "/x", nil)
	if empty.Header.Get("Content-Type") != "" {
		t.Error("GET without body should not set Content-Type")
	}
}

func TestServeAndDecode(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"queued"}`))
	})
	rec := Serve(h, NewJSONRequest(t, http.MethodPost, "/", nil))
	AssertStatusCode(t, rec.Code, http.StatusAccepted)

	var got map[string]string
	DecodeJSON(t, rec, &got)
	if got["status"] != "queued" {
		t.Errorf("status = %q", got["status"])
	}
}
