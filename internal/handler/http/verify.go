// Package http exposes the verification service over HTTP: claim
// submission, health reporting, and Prometheus metrics.
package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"claimcheck/internal/domain/entity"
	"claimcheck/internal/handler/http/respond"
	"claimcheck/internal/usecase/verify"
)

// maxVerifyBodyBytes caps the verify request body. Claims are capped at
// 2000 characters, so anything near this limit is garbage.
const maxVerifyBodyBytes = 64 * 1024

// VerifyHandler serves claim verification requests.
type VerifyHandler struct {
	svc *verify.Service
}

// NewVerifyHandler creates the verification endpoint handler.
func NewVerifyHandler(svc *verify.Service) *VerifyHandler {
	return &VerifyHandler{svc: svc}
}

type verifyRequest struct {
	Claim  string            `json:"claim"`
	Params map[string]string `json:"params,omitempty"`
}

// Verify handles POST /v1/verify. The response is the full consensus
// result including the per-provider breakdown.
//
// Status codes:
//   - 200: verification completed (the verdict may be UNVERIFIABLE)
//   - 400: malformed body or invalid claim
//   - 429: caller exceeded its rate limit; Retry-After is set
//   - 503: no provider is currently available
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.svc.Verify(r.Context(), req.Claim, req.Params, CallerIdentity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, result)
}

func (h *VerifyHandler) writeError(w http.ResponseWriter, err error) {
	var rlErr *verify.RateLimitError
	switch {
	case errors.As(err, &rlErr):
		d := rlErr.Decision
		w.Header().Set("Retry-After", strconv.FormatInt(d.RetryAfterSeconds(), 10))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
	case errors.Is(err, entity.ErrInvalidInput):
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respond.Error(w, http.StatusGatewayTimeout, "verification timed out")
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}

// CallerIdentity derives the rate-limit key for a request. Authenticated
// callers are keyed by a digest of their API key; anonymous callers fall
// back to the client IP.
func CallerIdentity(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		sum := sha256.Sum256([]byte(key))
		return "key:" + hex.EncodeToString(sum[:6])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
