package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domerrors "github.com/amirhosseinghanipour/authgate/internal/domain/errors"
)

func TestLoginSuccessResetsCounter(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a@x.com", "", "p1")
	ctx := context.Background()

	f.decide(t, "a@x.com", "wrong")
	f.decide(t, "a@x.com", "wrong")
	res := f.decide(t, "a@x.com", "p1")
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s, want success", res.Outcome)
	}
	if n := f.tracker.Failures(ctx, "a@x.com"); n != 0 {
		t.Fatalf("counter after success = %d, want 0", n)
	}
}

func TestLoginByPhone(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a@x.com", "+15550100", "p1")
	if res := f.decide(t, "+15550100", "p1"); res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %s, want success", res.Outcome)
	}
}

func TestLoginLocksOutAfterFiveFailures(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a@x.com", "", "p1")

	want := []Outcome{
		OutcomeInvalidPassword,
		OutcomeInvalidPassword,
		OutcomeInvalidPassword,
		OutcomeInvalidPassword,
		OutcomeLockedOut,
	}
	for i, w := range want {
		if res := f.decide(t, "a@x.com", "wrong"); res.Outcome != w {
			t.Fatalf("attempt %d: Outcome = %s, want %s", i+1, res.Outcome, w)
		}
	}

	verifies := f.hasher.verifies.Load()
	if res := f.decide(t, "a@x.com", "p1"); res.Outcome != OutcomeLockedOut {
		t.Fatalf("correct password after lockout: Outcome = %s, want locked_out", res.Outcome)
	}
	if f.hasher.verifies.Load() != verifies {
		t.Fatal("password verification ran while locked")
	}
}

func TestLoginLockedUntilReset(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a@x.com", "", "p1")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.decide(t, "a@x.com", "wrong")
	}
	for i := 0; i < 3; i++ {
		if res := f.decide(t, "a@x.com", "p1"); res.Outcome != OutcomeLockedOut {
			t.Fatalf("Outcome = %s, want locked_out", res.Outcome)
		}
	}
	f.tracker.ResetAll(ctx)
	if res := f.decide(t, "a@x.com", "p1"); res.Outcome != OutcomeSuccess {
		t.Fatalf("after ResetAll: Outcome = %s, want success", res.Outcome)
	}
}

func TestLoginUnknownIdentifierDoesNotTouchTracker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if res := f.decide(t, "ghost@x.com", "pw"); res.Outcome != OutcomeUserNotFound {
			t.Fatalf("Outcome = %s, want user_not_found", res.Outcome)
		}
	}
	if n := f.tracker.Failures(ctx, "ghost@x.com"); n != 0 {
		t.Fatalf("tracker mutated for unknown identifier: %d", n)
	}
	if f.hasher.verifies.Load() != 0 {
		t.Fatal("verification ran for unknown identifier")
	}
}

func TestLoginFederatedOnlyAccountFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reconcile := NewReconcileFederated(f.accounts)
	if _, err := reconcile.Execute(ctx, FederatedIdentity{Email: "b@y.com", SubjectID: "sub123", DisplayName: "Bob"}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	res := f.decide(t, "b@y.com", "anything")
	if res.Outcome != OutcomeInvalidPassword {
		t.Fatalf("Outcome = %s, want invalid_password", res.Outcome)
	}
	if n := f.tracker.Failures(ctx, "b@y.com"); n != 1 {
		t.Fatalf("failure counter = %d, want 1", n)
	}
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)
	ok255 := strings.Repeat("i", 255)
	ok1000 := strings.Repeat("p", 1000)
	f.seed(t, ok255, "", ok1000)

	tests := []struct {
		name       string
		identifier string
		password   string
		outcome    Outcome
		reason     string
	}{
		{"missing identifier", "", "pw", OutcomeValidationError, ReasonMissing},
		{"missing password", "a@x.com", "", OutcomeValidationError, ReasonMissing},
		{"identifier 256", strings.Repeat("i", 256), "pw", OutcomeValidationError, ReasonIdentifierTooLong},
		{"password 1001", "a@x.com", strings.Repeat("p", 1001), OutcomeValidationError, ReasonPasswordTooLong},
		{"both at limit", ok255, ok1000, OutcomeSuccess, ""},
		{"multibyte identifier at limit", strings.Repeat("é", 255), "pw", OutcomeUserNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.decide(t, tt.identifier, tt.password)
			if res.Outcome != tt.outcome || res.Reason != tt.reason {
				t.Fatalf("got (%s, %q), want (%s, %q)", res.Outcome, res.Reason, tt.outcome, tt.reason)
			}
		})
	}
}

func TestLoginValidationRunsBeforeStore(t *testing.T) {
	l := NewLogin(failingRepo{}, &plainHasher{}, nil)
	res, err := l.Execute(context.Background(), LoginInput{Identifier: "", Password: "x"})
	if err != nil {
		t.Fatalf("validation should not reach the store: %v", err)
	}
	if res.Outcome != OutcomeValidationError {
		t.Fatalf("Outcome = %s", res.Outcome)
	}
}

func TestLoginStoreFailure(t *testing.T) {
	l := NewLogin(failingRepo{}, &plainHasher{}, nil)
	_, err := l.Execute(context.Background(), LoginInput{Identifier: "a@x.com", Password: "x"})
	if !errors.Is(err, domerrors.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestLoginEstablishesSessionOnlyOnSuccess(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a@x.com", "", "p1")
	ctx := context.Background()
	sess := &recordingSession{}

	if _, err := f.login.Execute(ctx, LoginInput{Identifier: "a@x.com", Password: "bad", Session: sess}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.login.Execute(ctx, LoginInput{Identifier: "nobody", Password: "p1", Session: sess}); err != nil {
		t.Fatal(err)
	}
	if len(sess.identifiers) != 0 {
		t.Fatalf("session established on failure: %v", sess.identifiers)
	}
	if _, err := f.login.Execute(ctx, LoginInput{Identifier: "a@x.com", Password: "p1", Session: sess}); err != nil {
		t.Fatal(err)
	}
	if len(sess.identifiers) != 1 || sess.identifiers[0] != "a@x.com" {
		t.Fatalf("sessions = %v", sess.identifiers)
	}
}

func TestLoginSessionFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a@x.com", "", "p1")
	_, err := f.login.Execute(context.Background(), LoginInput{
		Identifier: "a@x.com",
		Password:   "p1",
		Session:    &recordingSession{err: errors.New("cookie encode")},
	})
	if !errors.Is(err, domerrors.ErrSessionUnavailable) {
		t.Fatalf("err = %v, want ErrSessionUnavailable", err)
	}
}

func TestLoginLockoutKeyIsRawIdentifier(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "a@x.com", "+15550100", "p1")
	for i := 0; i < 5; i++ {
		f.decide(t, "a@x.com", "wrong")
	}
	// The phone resolves to the same account but is tracked separately.
	if res := f.decide(t, "+15550100", "p1"); res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome via phone = %s, want success", res.Outcome)
	}
	if res := f.decide(t, "a@x.com", "p1"); res.Outcome != OutcomeLockedOut {
		t.Fatalf("Outcome via email = %s, want locked_out", res.Outcome)
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeLockedOut.String() != "locked_out" || Outcome(99).String() != "unknown" {
		t.Fatal("unexpected Outcome names")
	}
}

func TestLoginConcurrentGuessesStopAtThreshold(t *testing.T) {
	f := newFixture(t)
	f.hasher.delay = 10 * time.Millisecond
	f.seed(t, "a@x.com", "", "p1")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[Outcome]int{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.login.Execute(context.Background(), LoginInput{Identifier: "a@x.com", Password: "wrong"})
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			outcomes[res.Outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if n := f.hasher.verifies.Load(); n != 5 {
		t.Fatalf("password checked %d times, want 5", n)
	}
	if n := f.tracker.Failures(context.Background(), "a@x.com"); n != 5 {
		t.Fatalf("failures = %d, want 5", n)
	}
	if outcomes[OutcomeInvalidPassword] != 4 || outcomes[OutcomeLockedOut] != 46 {
		t.Fatalf("outcomes = %v, want 4 invalid and 46 locked", outcomes)
	}
	if res := f.decide(t, "a@x.com", "p1"); res.Outcome != OutcomeLockedOut {
		t.Fatalf("correct password after lockout: Outcome = %s, want locked_out", res.Outcome)
	}
}

func TestLoginConcurrentMixedAttemptsKeepCounterBounded(t *testing.T) {
	f := newFixture(t)
	f.hasher.delay = 5 * time.Millisecond
	f.seed(t, "a@x.com", "", "p1")

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 30; i++ {
		password := "wrong"
		if i == 15 {
			password = "p1"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.login.Execute(context.Background(), LoginInput{Identifier: "a@x.com", Password: password})
			if err != nil {
				t.Error(err)
				return
			}
			if res.Outcome == OutcomeSuccess {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	// At most four failures before the success and five after it.
	if n := f.hasher.verifies.Load(); n > 10 {
		t.Fatalf("password checked %d times, want at most 10", n)
	}
	if n := f.tracker.Failures(context.Background(), "a@x.com"); n > 5 {
		t.Fatalf("failures = %d, want at most 5", n)
	}
	if n := successes.Load(); n > 1 {
		t.Fatalf("successes = %d, want at most 1", n)
	}
}
