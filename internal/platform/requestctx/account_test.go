package requestctx

import (
	"context"
	"testing"
)

func TestAccountIDFromContextRoundTrip(t *testing.T) {
	ctx := WithAccountID(context.Background(), "acc-42")
	got := AccountIDFromContext(ctx)
	if got != "acc-42" {
		t.Fatalf("AccountIDFromContext = %q, want %q", got, "acc-42")
	}
}

func TestAccountIDFromContextEmpty(t *testing.T) {
	got := AccountIDFromContext(context.Background())
	if got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestAccountIDFromContextNil(t *testing.T) {
	got := AccountIDFromContext(nil)
	if got != "" {
		t.Fatalf("expected empty string for nil context, got %q", got)
	}
}

func TestWithAccountIDNilContext(t *testing.T) {
	ctx := WithAccountID(nil, "acc-99")
	if ctx == nil {
		t.Fatalf("expected non-nil context")
	}
	if got := AccountIDFromContext(ctx); got != "acc-99" {
		t.Fatalf("AccountIDFromContext = %q, want %q", got, "acc-99")
	}
}
