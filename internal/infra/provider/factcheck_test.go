package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimcheck/internal/domain/entity"
	"claimcheck/internal/resilience/retry"
)

func factCheckServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got == "" {
			t.Error("expected query parameter")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFactCheck_AgreingReviews(t *testing.T) {
	srv := factCheckServer(t, http.StatusOK, `{
		"claims": [{
			"text": "the earth is flat",
			"claimReview": [
				{"publisher": {"name": "CheckerOne"}, "url": "https://one.example/review", "title": "Flat earth debunked", "textualRating": "False"},
				{"publisher": {"name": "CheckerTwo"}, "url": "https://two.example/review", "title": "No, it is round", "textualRating": "Pants on Fire"}
			]
		}]
	}`)

	fc := NewFactCheck("factcheck", "test-key", FactCheckConfig{Endpoint: srv.URL})
	result, err := fc.Verify(context.Background(), entity.Claim{Text: "The Earth is flat"})

	require.NoError(t, err)
	assert.Equal(t, entity.VerdictFalse, result.Verdict)
	assert.Equal(t, float64(90), result.Confidence, "unanimous reviews score full confidence")
	assert.Len(t, result.Sources, 2)
	assert.Contains(t, result.Reasoning, "CheckerOne")
}

func TestFactCheck_SplitReviews(t *testing.T) {
	srv := factCheckServer(t, http.StatusOK, `{
		"claims": [{
			"claimReview": [
				{"publisher": {"name": "A"}, "url": "https://a.example", "textualRating": "True"},
				{"publisher": {"name": "B"}, "url": "https://b.example", "textualRating": "True"},
				{"publisher": {"name": "C"}, "url": "https://c.example", "textualRating": "False"}
			]
		}]
	}`)

	fc := NewFactCheck("factcheck", "test-key", FactCheckConfig{Endpoint: srv.URL})
	result, err := fc.Verify(context.Background(), entity.Claim{Text: "some claim"})

	require.NoError(t, err)
	assert.Equal(t, entity.VerdictTrue, result.Verdict)
	assert.InDelta(t, 60.0, result.Confidence, 0.01, "2/3 agreement scales confidence")
}

func TestFactCheck_NoReviews(t *testing.T) {
	srv := factCheckServer(t, http.StatusOK, `{"claims": []}`)

	fc := NewFactCheck("factcheck", "test-key", FactCheckConfig{Endpoint: srv.URL})
	result, err := fc.Verify(context.Background(), entity.Claim{Text: "an obscure claim"})

	require.NoError(t, err)
	assert.Equal(t, entity.VerdictUnverifiable, result.Verdict)
	assert.Equal(t, float64(0), result.Confidence)
}

func TestFactCheck_ServerError(t *testing.T) {
	srv := factCheckServer(t, http.StatusServiceUnavailable, "upstream down")

	fc := NewFactCheck("factcheck", "test-key", FactCheckConfig{Endpoint: srv.URL})
	_, err := fc.Verify(context.Background(), entity.Claim{Text: "some claim"})

	require.Error(t, err)
	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.True(t, retry.IsRetryable(err), "5xx responses should be retryable")
}

func TestFactCheck_MaxReviewsCap(t *testing.T) {
	srv := factCheckServer(t, http.StatusOK, `{
		"claims": [{
			"claimReview": [
				{"publisher": {"name": "A"}, "url": "https://a.example", "textualRating": "True"},
				{"publisher": {"name": "B"}, "url": "https://b.example", "textualRating": "True"},
				{"publisher": {"name": "C"}, "url": "https://c.example", "textualRating": "True"}
			]
		}]
	}`)

	fc := NewFactCheck("factcheck", "test-key", FactCheckConfig{Endpoint: srv.URL, MaxReviews: 2})
	result, err := fc.Verify(context.Background(), entity.Claim{Text: "some claim"})

	require.NoError(t, err)
	assert.Len(t, result.Sources, 2)
}
