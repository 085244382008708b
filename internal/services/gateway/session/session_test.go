package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/services/gateway/account"
	"github.com/louisbranch/accountgate/internal/services/gateway/storage/sqlite"
)

func testService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "gateway.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return NewService(store, store), store
}

func seedAccount(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	err := store.PutAccount(context.Background(), account.Account{
		ID:        id,
		Email:     id + "@example.com",
		State:     account.StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
}

func TestNewTokenFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		token, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("token length = %d, want 64", len(token))
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestIssueAndResolve(t *testing.T) {
	svc, store := testService(t)
	seedAccount(t, store, "acc1")
	ctx := context.Background()

	sess, err := svc.Issue(ctx, "acc1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Fatalf("token length = %d, want 64", len(sess.Token))
	}

	a, err := svc.Resolve(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.ID != "acc1" {
		t.Fatalf("resolved account %q, want acc1", a.ID)
	}
}

func TestIssueUnknownAccount(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Issue(context.Background(), "ghost")
	if !apperrors.IsCode(err, apperrors.CodeIdentityNotFound) {
		t.Fatalf("error = %v, want identity not found", err)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Resolve(context.Background(), "bogus")
	if !apperrors.IsCode(err, apperrors.CodeTokenInvalid) {
		t.Fatalf("error = %v, want token invalid", err)
	}
}

func TestDestroyAll(t *testing.T) {
	svc, store := testService(t)
	seedAccount(t, store, "acc1")
	ctx := context.Background()

	first, err := svc.Issue(ctx, "acc1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := svc.Issue(ctx, "acc1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := svc.DestroyAll(ctx, "acc1"); err != nil {
		t.Fatalf("DestroyAll: %v", err)
	}

	for _, token := range []string{first.Token, second.Token} {
		if _, err := svc.Resolve(ctx, token); !apperrors.IsCode(err, apperrors.CodeTokenInvalid) {
			t.Fatalf("destroyed token still resolves: %v", err)
		}
	}

	// Idempotent for accounts with no sessions.
	if err := svc.DestroyAll(ctx, "acc1"); err != nil {
		t.Fatalf("repeat DestroyAll: %v", err)
	}
}
