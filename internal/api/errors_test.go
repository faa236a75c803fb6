package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(http.StatusBadRequest, ErrCodeInvalidJSON, "Invalid JSON").
		WithFields(map[string]string{"title": "Value is required"}).
		WithRequestID("req-123")

	if resp.Error != "Bad Request" {
		t.Errorf("Expected Error 'Bad Request', got '%s'", resp.Error)
	}
	if resp.Code != ErrCodeInvalidJSON {
		t.Errorf("Expected Code INVALID_JSON, got '%s'", resp.Code)
	}
	if resp.Fields["title"] != "Value is required" {
		t.Errorf("unexpected fields %v", resp.Fields)
	}
	if resp.RequestID != "req-123" {
		t.Errorf("Expected RequestID 'req-123', got '%s'", resp.RequestID)
	}
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter, r *http.Request)
		wantStatus int
		wantCode   ErrorCode
	}{
		{
			name: "validation",
			write: func(w http.ResponseWriter, r *http.Request) {
				ValidationError(w, r, "bad", map[string]string{"id": "x"})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "bad request",
			write:      func(w http.ResponseWriter, r *http.Request) { BadRequestError(w, r, ErrCodeInvalidJSON, "x") },
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidJSON,
		},
		{
			name:       "unauthorized",
			write:      func(w http.ResponseWriter, r *http.Request) { UnauthorizedError(w, r, ErrCodeSignIn, "x") },
			wantStatus: http.StatusUnauthorized,
			wantCode:   ErrCodeSignIn,
		},
		{
			name:       "forbidden",
			write:      func(w http.ResponseWriter, r *http.Request) { ForbiddenError(w, r, "x") },
			wantStatus: http.StatusForbidden,
			wantCode:   ErrCodeForbidden,
		},
		{
			name:       "internal",
			write:      func(w http.ResponseWriter, r *http.Request) { InternalError(w, r, "x") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternal,
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter, r *http.Request) { NotFoundError(w, r, "x") },
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "too large",
			write:      func(w http.ResponseWriter, r *http.Request) { RequestTooLargeError(w, r, "x") },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   ErrCodeRequestTooLarge,
		},
		{
			name:       "rate limited",
			write:      func(w http.ResponseWriter, r *http.Request) { RateLimitedError(w, r) },
			wantStatus: http.StatusTooManyRequests,
			wantCode:   ErrCodeRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/v1/items/x", nil)
			tt.write(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("Expected Code %s, got '%s'", tt.wantCode, resp.Code)
			}
			if resp.Error != http.StatusText(tt.wantStatus) {
				t.Errorf("Expected Error %q, got %q", http.StatusText(tt.wantStatus), resp.Error)
			}
		})
	}
}

func TestErrorResponse_IncludesRequestID(t *testing.T) {
	var rec *httptest.ResponseRecorder
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError(w, r, "item not found")
	}))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/items/missing", nil))

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.RequestID == "" {
		t.Error("Expected request_id to be set from the request id middleware")
	}
}
