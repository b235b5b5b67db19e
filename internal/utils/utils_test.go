package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content-type and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, map[string]string{"key": "value"})

		if got := w.Header().Get("Content-Type"); got != ContentTypeJSON {
			t.Errorf("Content-Type = %q; want %q", got, ContentTypeJSON)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("encodes body as JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusCreated, map[string]string{"foo": "bar"})

		var got map[string]string
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if got["foo"] != "bar" {
			t.Errorf("body[foo] = %q; want bar", got["foo"])
		}
	})
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, "invalid input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Code = %d; want %d", w.Code, http.StatusBadRequest)
	}

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if got["error"] != http.StatusText(http.StatusBadRequest) {
		t.Errorf("error = %q; want %q", got["error"], http.StatusText(http.StatusBadRequest))
	}
	if got["message"] != "invalid input" {
		t.Errorf("message = %q; want %q", got["message"], "invalid input")
	}
}

func TestWriteBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteBody(w, http.StatusOK, ContentTypeSVG, []byte("<svg></svg>"))

	if got := w.Header().Get("Content-Type"); got != ContentTypeSVG {
		t.Errorf("Content-Type = %q; want %q", got, ContentTypeSVG)
	}
	if w.Body.String() != "<svg></svg>" {
		t.Errorf("body = %q", w.Body.String())
	}
}
