package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "gateway call failed")

	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause in chain")
	}
}

func TestAsFindsTypedErrorThroughChain(t *testing.T) {
	inner := New(CodeRateLimit, "too many requests")
	outer := fmt.Errorf("processing instruction: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeRateLimit {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestIsRateLimit(t *testing.T) {
	if !IsRateLimit(fmt.Errorf("attempt: %w", New(CodeRateLimit, "throttled"))) {
		t.Fatal("expected rate-limit detection through wrapping")
	}
	if IsRateLimit(New(CodeDependency, "gateway down")) {
		t.Fatal("dependency errors are not rate limits")
	}
	if IsRateLimit(nil) {
		t.Fatal("nil is not a rate limit")
	}
}

func TestMetadataFor(t *testing.T) {
	meta := MetadataFor(CodeVerificationFailed)
	if meta.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}

	fallback := MetadataFor(Code("UNKNOWN"))
	if fallback.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to internal, got %d", fallback.HTTPStatus)
	}
}

func TestRateLimitIsRetryable(t *testing.T) {
	if !MetadataFor(CodeRateLimit).Retryable {
		t.Fatal("rate limit must be retryable")
	}
	if MetadataFor(CodeMerchantNotFound).Retryable {
		t.Fatal("merchant lookup failures are terminal")
	}
}
