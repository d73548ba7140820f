package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]string{"verdict": "TRUE"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["verdict"] != "TRUE" {
		t.Errorf("body verdict = %q, want TRUE", body["verdict"])
	}
}

func TestJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestSafeError_MasksInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusInternalServerError, errors.New("dial tcp 10.0.0.5:6379: connection refused"))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Errorf("error = %q, internal detail must not leak", body["error"])
	}
}

func TestSafeError_PassesClientErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusBadRequest, errors.New("claim text is required"))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "claim text is required" {
		t.Errorf("error = %q, want the validation message", body["error"])
	}
}

func TestSafeError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	appErr := NewAppError(http.StatusServiceUnavailable, "verification temporarily unavailable",
		errors.New("all providers in cooldown"))
	SafeError(rec, http.StatusInternalServerError, appErr)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want the AppError code 503", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "verification temporarily unavailable" {
		t.Errorf("error = %q, want the user-facing message", body["error"])
	}
}

func TestSafeError_NilError(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusInternalServerError, nil)

	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want nothing written for nil error", rec.Body.String())
	}
}
