package archive_test

import (
	"errors"
	"testing"

	"archview/internal/archive"
	"archview/internal/secret"
	"archview/internal/testutil"
)

func newCredentialStore() *testutil.FakeCredentialStore {
	store := testutil.NewFakeCredentialStore()
	store.Users["jdoe"] = testutil.FakeUser{
		EncodedSecret:          secret.Encode("correct horse"),
		UserID:                 5,
		Role:                   "archivist",
		FullName:               "Jamie Doe",
		PasswordChangeRequired: true,
	}
	return store
}

func TestAuthenticator_Authenticate(t *testing.T) {
	t.Run("accepts valid credentials", func(t *testing.T) {
		store := newCredentialStore()
		auth := archive.NewAuthenticator(store, 3, archive.NewNopLogger())

		res, err := auth.Authenticate(t.Context(), " jdoe ", "correct horse ")
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if res.State != archive.AuthAuthenticated {
			t.Fatalf("State = %s, want authenticated", res.State)
		}
		want := archive.Identity{Login: "jdoe", UserID: 5, Role: "archivist", FullName: "Jamie Doe", PasswordChangeRequired: true}
		if *res.Identity != want {
			t.Errorf("Identity = %+v, want %+v", *res.Identity, want)
		}
		if auth.Identity() == nil {
			t.Error("Identity() = nil after success")
		}
	})

	t.Run("blank fields are rejected without an attempt", func(t *testing.T) {
		store := newCredentialStore()
		auth := archive.NewAuthenticator(store, 3, archive.NewNopLogger())

		for _, c := range [][2]string{{"", "x"}, {"jdoe", ""}, {"  ", "  "}} {
			res, err := auth.Authenticate(t.Context(), c[0], c[1])
			if !errors.Is(err, archive.ErrCredentialRejected) {
				t.Fatalf("Authenticate(%q, %q) error = %v, want ErrCredentialRejected", c[0], c[1], err)
			}
			if res.State != archive.AuthRejected {
				t.Errorf("State = %s, want rejected", res.State)
			}
		}
		if auth.AttemptsLeft() != 3 {
			t.Errorf("AttemptsLeft() = %d, want 3", auth.AttemptsLeft())
		}
		if store.ValidateCalls != 0 {
			t.Errorf("store contacted %d times", store.ValidateCalls)
		}
	})

	t.Run("disconnected store is rejected without an attempt", func(t *testing.T) {
		store := newCredentialStore()
		store.Disconnected = true
		auth := archive.NewAuthenticator(store, 3, archive.NewNopLogger())

		_, err := auth.Authenticate(t.Context(), "jdoe", "correct horse")
		if !errors.Is(err, archive.ErrCredentialRejected) || !errors.Is(err, archive.ErrStoreNotConnected) {
			t.Fatalf("Authenticate() error = %v, want rejection for a disconnected store", err)
		}
		if auth.AttemptsLeft() != 3 {
			t.Errorf("AttemptsLeft() = %d, want 3", auth.AttemptsLeft())
		}
	})

	t.Run("store error does not consume an attempt", func(t *testing.T) {
		store := newCredentialStore()
		store.ValidateErr = errors.New("deadlock victim")
		auth := archive.NewAuthenticator(store, 3, archive.NewNopLogger())

		_, err := auth.Authenticate(t.Context(), "jdoe", "correct horse")
		if err == nil || errors.Is(err, archive.ErrCredentialRejected) {
			t.Fatalf("Authenticate() error = %v, want store error", err)
		}
		if auth.AttemptsLeft() != 3 {
			t.Errorf("AttemptsLeft() = %d, want 3", auth.AttemptsLeft())
		}
	})

	t.Run("three failures lock out", func(t *testing.T) {
		store := newCredentialStore()
		auth := archive.NewAuthenticator(store, 3, archive.NewNopLogger())

		res, err := auth.Authenticate(t.Context(), "jdoe", "wrong")
		var rejected *archive.RejectedError
		if !errors.As(err, &rejected) || rejected.AttemptsLeft != 2 {
			t.Fatalf("first failure error = %v, want 2 attempts left", err)
		}
		if res.State != archive.AuthRejected {
			t.Errorf("State = %s, want rejected", res.State)
		}

		_, err = auth.Authenticate(t.Context(), "jdoe", "wrong")
		if !errors.As(err, &rejected) || rejected.AttemptsLeft != 1 {
			t.Fatalf("second failure error = %v, want 1 attempt left", err)
		}

		res, err = auth.Authenticate(t.Context(), "jdoe", "wrong")
		if !errors.Is(err, archive.ErrLockedOut) {
			t.Fatalf("third failure error = %v, want ErrLockedOut", err)
		}
		if res.State != archive.AuthLockedOut {
			t.Errorf("State = %s, want locked out", res.State)
		}

		calls := store.ValidateCalls
		_, err = auth.Authenticate(t.Context(), "jdoe", "correct horse")
		if !errors.Is(err, archive.ErrLockedOut) {
			t.Errorf("call after lockout error = %v, want ErrLockedOut", err)
		}
		if store.ValidateCalls != calls {
			t.Error("store contacted after lockout")
		}
	})

	t.Run("non-positive limit uses the default", func(t *testing.T) {
		auth := archive.NewAuthenticator(newCredentialStore(), 0, archive.NewNopLogger())
		if auth.AttemptsLeft() != archive.DefaultAttemptLimit {
			t.Errorf("AttemptsLeft() = %d, want %d", auth.AttemptsLeft(), archive.DefaultAttemptLimit)
		}
	})
}

func TestAuthenticator_AuthenticateEncoded(t *testing.T) {
	store := newCredentialStore()
	auth := archive.NewAuthenticator(store, 2, archive.NewNopLogger())

	if _, err := auth.AuthenticateEncoded(t.Context(), "jdoe", "05wrong"); err == nil {
		t.Fatal("AuthenticateEncoded() accepted a wrong secret")
	}
	if auth.AttemptsLeft() != 1 {
		t.Errorf("AttemptsLeft() = %d, want 1", auth.AttemptsLeft())
	}

	res, err := auth.AuthenticateEncoded(t.Context(), "jdoe", secret.Encode("correct horse"))
	if err != nil {
		t.Fatalf("AuthenticateEncoded() error = %v", err)
	}
	if res.State != archive.AuthAuthenticated || res.Identity.UserID != 5 {
		t.Errorf("result = %+v, want authenticated user 5", res)
	}
}
