package healthcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/memohai/slackrelay/internal/credentials"
)

type failingStore struct {
	credentials.Store
}

func (failingStore) List(context.Context) ([]credentials.Installation, error) {
	return nil, errors.New("boom")
}

func TestRunReportsWorstStatus(t *testing.T) {
	t.Parallel()

	ok := CheckerFunc(func(context.Context) []CheckResult {
		return []CheckResult{{ID: "a", Status: StatusOK}}
	})
	warn := CheckerFunc(func(context.Context) []CheckResult {
		return []CheckResult{{ID: "b", Status: StatusWarn}}
	})

	report := Run(context.Background(), ok, nil, warn)
	if report.Status != StatusWarn {
		t.Fatalf("expected warn, got %s", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(report.Checks))
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := Run(ctx, GeminiChecker("k", "m"))
	if report.Status != StatusError {
		t.Fatalf("expected error, got %s", report.Status)
	}
}

func TestGeminiChecker(t *testing.T) {
	t.Parallel()

	items := GeminiChecker("", "gemini-1.5-flash-8b").ListChecks(context.Background())
	if len(items) != 1 || items[0].Status != StatusWarn {
		t.Fatalf("expected warn without api key, got %+v", items)
	}
	items = GeminiChecker("key", "gemini-1.5-flash-8b").ListChecks(context.Background())
	if items[0].Status != StatusOK {
		t.Fatalf("expected ok with api key, got %+v", items)
	}
}

func TestCredentialsChecker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := credentials.NewMemoryStore()

	if items := CredentialsChecker(store, "").ListChecks(ctx); items[0].Status != StatusError {
		t.Fatalf("expected error with nothing configured, got %+v", items)
	}
	if items := CredentialsChecker(store, "xoxb-static").ListChecks(ctx); items[0].Status != StatusOK {
		t.Fatalf("expected ok with static token, got %+v", items)
	}
	if err := store.Put(ctx, credentials.Installation{TeamID: "T1", AccessToken: "xoxb-1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	items := CredentialsChecker(store, "").ListChecks(ctx)
	if items[0].Status != StatusOK || items[0].Metadata["installations"] != 1 {
		t.Fatalf("expected ok with one installation, got %+v", items)
	}
	if items := CredentialsChecker(failingStore{}, "").ListChecks(ctx); items[0].Status != StatusError {
		t.Fatalf("expected error on store failure, got %+v", items)
	}
}
