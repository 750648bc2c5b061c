package accounts

import (
	"context"
	"strings"
	"testing"

	"github.com/atriumhq/atrium-backend/pkg/db/models"
	"github.com/google/uuid"
)

type fakeUsernameChecker struct {
	taken func(username string) bool
	calls int
}

func (f *fakeUsernameChecker) UsernameExists(ctx context.Context, username string) (bool, error) {
	f.calls++
	if f.taken == nil {
		return false, nil
	}
	return f.taken(username), nil
}

func TestGenerateAnonUsernameFirstCandidate(t *testing.T) {
	id := uuid.New()
	checker := &fakeUsernameChecker{}

	got, err := generateAnonUsername(context.Background(), checker, id)
	if err != nil {
		t.Fatalf("generateAnonUsername failed: %v", err)
	}
	want := "anon_" + id.String()[:8]
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if checker.calls != 1 {
		t.Fatalf("expected a single existence check, got %d", checker.calls)
	}
}

func TestGenerateAnonUsernameShrinksPrefixForSuffix(t *testing.T) {
	id := uuid.New()
	idStr := id.String()
	first := "anon_" + idStr[:8]
	second := "anon_" + idStr[:7] + "1"

	checker := &fakeUsernameChecker{taken: func(u string) bool {
		return u == first || u == second
	}}

	got, err := generateAnonUsername(context.Background(), checker, id)
	if err != nil {
		t.Fatalf("generateAnonUsername failed: %v", err)
	}
	want := "anon_" + idStr[:7] + "2"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if len(got) != models.UsernameMaxLen {
		t.Fatalf("candidate must fill the username limit, got %d chars", len(got))
	}

	// two-digit suffixes trade another id character for length
	checker = &fakeUsernameChecker{taken: func(u string) bool {
		return !strings.HasSuffix(u, "15")
	}}
	got, err = generateAnonUsername(context.Background(), checker, id)
	if err != nil {
		t.Fatalf("generateAnonUsername failed: %v", err)
	}
	want = "anon_" + idStr[:6] + "15"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestGenerateAnonUsernameFallsBackToRawID(t *testing.T) {
	id := uuid.New()
	checker := &fakeUsernameChecker{taken: func(string) bool { return true }}

	got, err := generateAnonUsername(context.Background(), checker, id)
	if err != nil {
		t.Fatalf("generateAnonUsername failed: %v", err)
	}
	want := id.String()[:models.UsernameMaxLen]
	if got != want {
		t.Fatalf("expected raw id fallback %s, got %s", want, got)
	}
	// 1 initial candidate + 999 suffixed attempts
	if checker.calls != 1000 {
		t.Fatalf("expected 1000 bounded attempts, got %d", checker.calls)
	}
}
