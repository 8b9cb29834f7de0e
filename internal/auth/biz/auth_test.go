package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/router"
	"github.com/lk2023060901/execution-console/internal/session"
)

// serverError mimics an API error that carries a server message.
type serverError struct{ message string }

func (e *serverError) Error() string       { return "http 409: " + e.message }
func (e *serverError) UserMessage() string { return e.message }

type fakeAuthRepo struct {
	token    string
	err      error
	calls    int
	gotUser  string
	gotEmail string
	block    chan struct{}
}

func (r *fakeAuthRepo) Signup(ctx context.Context, username, email, password string) (string, error) {
	r.calls++
	r.gotUser, r.gotEmail = username, email
	if r.block != nil {
		<-r.block
	}
	return r.token, r.err
}

func (r *fakeAuthRepo) Login(ctx context.Context, account, password string) (string, error) {
	r.calls++
	r.gotUser = account
	return r.token, r.err
}

type fixture struct {
	repo    *fakeAuthRepo
	store   *session.MemoryStore
	session *session.Session
	nav     *router.History
	uc      *AuthUseCase
}

func newFixture(repo *fakeAuthRepo) *fixture {
	f := &fixture{
		repo:    repo,
		store:   session.NewMemoryStore(),
		session: session.New(),
		nav:     router.NewHistory("/signup"),
	}
	f.uc = NewAuthUseCase(repo, f.store, f.session, f.nav, logger.NewNop())
	return f
}

func filledSignup(uc *AuthUseCase) *SignupForm {
	form := NewSignupForm(uc)
	form.Username = "alice"
	form.Email = "alice@example.com"
	form.Password = "secret123"
	return form
}

func TestSignupForm_Success(t *testing.T) {
	f := newFixture(&fakeAuthRepo{token: "tok-1"})
	form := filledSignup(f.uc)

	require.NoError(t, form.Submit(context.Background()))

	token, _ := f.store.Load(context.Background())
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, 1, f.store.Saves())
	assert.Equal(t, 1, f.nav.Calls())
	assert.Equal(t, []string{router.Projects}, f.nav.Entries())
	assert.Equal(t, "tok-1", f.session.Token())
	assert.False(t, form.Loading())
	assert.Empty(t, form.ErrorText())
}

func TestSignupForm_SendsUsernameAsTyped(t *testing.T) {
	repo := &fakeAuthRepo{token: "tok-1"}
	f := newFixture(repo)
	form := filledSignup(f.uc)
	form.Username = " alice "
	form.Email = " alice@example.com "

	require.NoError(t, form.Submit(context.Background()))
	assert.Equal(t, " alice ", repo.gotUser)
	assert.Equal(t, "alice@example.com", repo.gotEmail)
}

func TestSignupForm_Failure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server message", &serverError{message: "taken"}, "taken"},
		{"empty server message", &serverError{}, SignupFailedMessage},
		{"plain error", errors.New("connection refused"), "connection refused"},
		{"empty error", errors.New(""), SignupFailedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(&fakeAuthRepo{err: tt.err})
			form := filledSignup(f.uc)

			assert.Error(t, form.Submit(context.Background()))
			assert.Equal(t, tt.wantMsg, form.ErrorText())
			assert.Equal(t, 0, f.store.Saves())
			assert.Equal(t, 0, f.nav.Calls())
			assert.Empty(t, f.session.Token())
			assert.False(t, form.Loading())
		})
	}
}

func TestSignupForm_ErrorClearedOnResubmit(t *testing.T) {
	repo := &fakeAuthRepo{err: &serverError{message: "taken"}}
	f := newFixture(repo)
	form := filledSignup(f.uc)

	require.Error(t, form.Submit(context.Background()))
	assert.Equal(t, "taken", form.ErrorText())

	repo.err, repo.token = nil, "tok-2"
	require.NoError(t, form.Submit(context.Background()))
	assert.Empty(t, form.ErrorText())
}

func TestSignupForm_StorageFailure(t *testing.T) {
	f := newFixture(&fakeAuthRepo{token: "tok"})
	f.store.FailWith(apperrors.New(apperrors.ErrStorage, "disk full"))
	form := filledSignup(f.uc)

	require.Error(t, form.Submit(context.Background()))
	assert.Equal(t, "disk full", form.ErrorText())
	assert.Equal(t, 0, f.nav.Calls())
	assert.Empty(t, f.session.Token())
}

func TestSignupForm_EmptyToken(t *testing.T) {
	f := newFixture(&fakeAuthRepo{})
	form := filledSignup(f.uc)

	err := form.Submit(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrAuthNoToken))
	assert.Equal(t, 0, f.store.Saves())
}

func TestSignupForm_Validate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantMsg  string
	}{
		{"missing username", " ", "a@b.c", "p", "Username is required."},
		{"missing email", "u", "", "p", "Email is required."},
		{"invalid email", "u", "nope", "p", "Please enter a valid email address."},
		{"missing password", "u", "a@b.c", "", "Password is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeAuthRepo{token: "t"}
			f := newFixture(repo)
			form := NewSignupForm(f.uc)
			form.Username, form.Email, form.Password = tt.username, tt.email, tt.password

			assert.Error(t, form.Submit(context.Background()))
			assert.Equal(t, tt.wantMsg, form.ErrorText())
			assert.Equal(t, 0, repo.calls)
		})
	}
}

func TestSignupForm_LoadingWhileInFlight(t *testing.T) {
	repo := &fakeAuthRepo{token: "t", block: make(chan struct{})}
	f := newFixture(repo)
	form := filledSignup(f.uc)

	done := make(chan error, 1)
	go func() { done <- form.Submit(context.Background()) }()

	assert.Eventually(t, form.Loading, time.Second, 5*time.Millisecond)
	assert.Error(t, form.Submit(context.Background()))

	close(repo.block)
	require.NoError(t, <-done)
	assert.False(t, form.Loading())
	assert.Equal(t, 1, repo.calls)
}

func TestSignupForm_TogglePassword(t *testing.T) {
	form := NewSignupForm(nil)
	form.Password = "abc"
	assert.Equal(t, "•••", form.DisplayPassword())

	form.TogglePassword()
	assert.True(t, form.ShowPassword)
	assert.Equal(t, "abc", form.DisplayPassword())

	form.TogglePassword()
	assert.False(t, form.ShowPassword)
}

func TestLoginForm(t *testing.T) {
	f := newFixture(&fakeAuthRepo{token: "tok-l"})
	form := NewLoginForm(f.uc)
	form.Account = " alice "
	form.Password = "pw"

	require.NoError(t, form.Submit(context.Background()))
	assert.Equal(t, "alice", f.repo.gotUser)
	assert.Equal(t, router.Projects, f.nav.Current())

	f = newFixture(&fakeAuthRepo{err: errors.New("")})
	form = NewLoginForm(f.uc)
	form.Account, form.Password = "a", "b"
	require.Error(t, form.Submit(context.Background()))
	assert.Equal(t, LoginFailedMessage, form.ErrorText())
}

func TestLogout(t *testing.T) {
	f := newFixture(&fakeAuthRepo{token: "tok"})
	require.NoError(t, f.uc.Login(context.Background(), "a", "b"))

	require.NoError(t, f.uc.Logout(context.Background()))
	assert.Empty(t, f.session.Token())
	assert.Equal(t, 1, f.store.Clears())
	assert.Equal(t, router.Login, f.nav.Current())
}
