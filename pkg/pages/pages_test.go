package pages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ataboo/go-ata-login/pkg/client"
	"github.com/ataboo/go-ata-login/pkg/notify"
	"github.com/ataboo/go-ata-login/pkg/testhelpers"
	"github.com/ataboo/go-ata-login/pkg/validation"
)

type harness struct {
	fake      *testhelpers.FakeAuthServer
	client    *client.Client
	recorder  *notify.Recorder
	presenter *notify.Presenter
	history   *History
	deps      Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fake := testhelpers.NewFakeAuthServer(t)
	fake.AddUser(t, "alice", "password")

	c, err := client.New(fake.BaseURL(), nil, nil)
	require.NoError(t, err)

	recorder := &notify.Recorder{}
	presenter := notify.NewPresenter(nil, recorder)
	history := NewHistory(c.BaseURL())

	return &harness{
		fake:      fake,
		client:    c,
		recorder:  recorder,
		presenter: presenter,
		history:   history,
		deps:      Deps{Auth: c, Presenter: presenter, Navigator: history},
	}
}

func (h *harness) login(t *testing.T, user string, password string) {
	t.Helper()

	ok, err := h.client.Login(context.Background(), client.Credentials{User: user, Password: password})
	require.NoError(t, err)
	require.True(t, ok)
}

func (h *harness) assertShowing(t *testing.T, c notify.Category, title string) {
	t.Helper()

	current, region := h.presenter.Snapshot()
	assert.Equal(t, c, current)
	assert.Equal(t, title, region.Title)
	assert.Equal(t, []notify.Category{c}, h.presenter.Visible())
}

func TestLoginEmptyPasswordMakesNoRequest(t *testing.T) {
	h := newHarness(t)
	p := NewLoginPage(h.deps, "", false)
	p.Form().Set(validation.FieldUser, "alice")
	p.Form().Set(validation.FieldPassword, "")

	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 0, h.fake.TotalCalls())
	assert.Equal(t, []string{validation.FieldPassword}, p.Form().InvalidFields())
	h.assertShowing(t, notify.Danger, "Invalid Input!")

	_, region := h.presenter.Snapshot()
	assert.Equal(t, "User name and password must not be empty. Missing: password.", region.Body)
}

func TestLoginSuccessReloadsInPlace(t *testing.T) {
	h := newHarness(t)
	p := NewLoginPage(h.deps, "", false)
	p.Form().Set(validation.FieldUser, "alice")
	p.Form().Set(validation.FieldPassword, "password")

	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	h.assertShowing(t, notify.Success, "Login Success")
	assert.Equal(t, 1, h.history.Navigations())
	assert.Equal(t, h.fake.BaseURL(), h.history.Current().String())

	shown := h.recorder.Shown()
	require.Len(t, shown, 2)
	assert.Equal(t, notify.Info, shown[0].Category)
	assert.Equal(t, notify.Success, shown[1].Category)

	active, err := h.client.CheckSession(context.Background())
	require.NoError(t, err)
	assert.True(t, active)
}

func TestLoginBothFieldsEmpty(t *testing.T) {
	h := newHarness(t)
	p := NewLoginPage(h.deps, "", false)

	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{validation.FieldUser, validation.FieldPassword}, p.Form().InvalidFields())
	_, region := h.presenter.Snapshot()
	assert.Equal(t, "User name and password must not be empty. Missing: user name, password.", region.Body)
	assert.Equal(t, 0, h.fake.TotalCalls())
}

func TestLoginInvalidRedirectReloads(t *testing.T) {
	h := newHarness(t)
	p := NewLoginPage(h.deps, "http://[::1", false)
	assert.Empty(t, p.Redirect)

	p.Form().Set(validation.FieldUser, "alice")
	p.Form().Set(validation.FieldPassword, "password")

	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	_, region := h.presenter.Snapshot()
	assert.Equal(t, "Now you may access the restricted area.", region.Body)
	assert.Equal(t, 1, h.history.Navigations())
	assert.Equal(t, h.fake.BaseURL(), h.history.Current().String())
}

func TestLoginSuccessFollowsRedirectTarget(t *testing.T) {
	h := newHarness(t)
	p := NewLoginPage(h.deps, "https://example.com/private/", false)
	p.Form().Set(validation.FieldUser, "alice")
	p.Form().Set(validation.FieldPassword, "password")

	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "https://example.com/private/", h.history.Current().String())
	h.assertShowing(t, notify.Success, "Login Success")
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)
	p := NewLoginPage(h.deps, "https://example.com/private/", false)
	p.Form().Set(validation.FieldUser, "alice")
	p.Form().Set(validation.FieldPassword, "nope")

	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	h.assertShowing(t, notify.Danger, "Login Failed!")
	assert.Equal(t, 0, h.history.Navigations())
}

func TestLoginLoad(t *testing.T) {
	h := newHarness(t)
	p := NewLoginPage(h.deps, "", true)

	active, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, active)
	h.assertShowing(t, notify.Info, "Logged Out")

	// the notice is shown once
	h.presenter.Clear()
	_, err = p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notify.None, h.presenter.Current())

	h.login(t, "alice", "password")
	active, err = p.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, active)
	h.assertShowing(t, notify.Info, "Already Logged In")
	assert.Equal(t, 0, h.history.Navigations())

	p.Redirect = "https://example.com/private/"
	_, err = p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/private/", h.history.Current().String())
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice", "password")

	p := NewChangePasswordPage(h.deps, "alice")
	p.Form().Set(validation.FieldOldPassword, "wrong")
	p.Form().Set(validation.FieldNewPassword, "fresh")
	p.Form().Set(validation.FieldConfirmPassword, "fresh")

	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{validation.FieldOldPassword}, p.Form().InvalidFields())
	h.assertShowing(t, notify.Danger, "Wrong Password!")

	_, region := h.presenter.Snapshot()
	assert.Equal(t, "Please examine your old password.", region.Body)
	assert.Equal(t, 0, h.fake.Calls(http.MethodPost, client.PathChangePassword))
	assert.True(t, h.fake.VerifyPassword("alice", "password"))
}

func TestChangePasswordSuccess(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice", "password")

	p := NewChangePasswordPage(h.deps, "alice")
	active, err := p.Load(context.Background())
	require.NoError(t, err)
	require.True(t, active)

	p.Form().Set(validation.FieldOldPassword, "password")
	p.Form().Set(validation.FieldNewPassword, "fresh")
	p.Form().Set(validation.FieldConfirmPassword, "fresh")

	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	h.assertShowing(t, notify.Success, "Password Changed")
	assert.Equal(t, 1, h.fake.Calls(http.MethodPost, client.PathChangePassword))
	assert.True(t, h.fake.VerifyPassword("alice", "fresh"))
	assert.Empty(t, p.Form().InvalidFields())
}

func TestChangePasswordRefusedAfterLogin(t *testing.T) {
	stub := newStubAuth(t, map[string]int{
		"POST /":               http.StatusOK,
		"POST /changepassword": http.StatusForbidden,
	})
	presenter := notify.NewPresenter(nil, nil)

	p := NewChangePasswordPage(Deps{Auth: stub.client, Presenter: presenter}, "alice")
	p.Form().Set(validation.FieldOldPassword, "password")
	p.Form().Set(validation.FieldNewPassword, "fresh")
	p.Form().Set(validation.FieldConfirmPassword, "fresh")

	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	current, region := presenter.Snapshot()
	assert.Equal(t, notify.Danger, current)
	assert.Equal(t, "Unknown Error", region.Title)
	assert.Empty(t, p.Form().InvalidFields())
	assert.Equal(t, 1, stub.calls("POST /"))
	assert.Equal(t, 1, stub.calls("POST /changepassword"))
}

func TestChangePasswordValidation(t *testing.T) {
	h := newHarness(t)
	p := NewChangePasswordPage(h.deps, "alice")

	//====== Empty fields are all marked ==========
	ok, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{
		validation.FieldOldPassword,
		validation.FieldNewPassword,
		validation.FieldConfirmPassword,
	}, p.Form().InvalidFields())
	h.assertShowing(t, notify.Danger, "Invalid Input!")

	//====== Mismatch marks the new pair and clears earlier marks ==========
	p.Form().Set(validation.FieldOldPassword, "password")
	p.Form().Set(validation.FieldNewPassword, "fresh")
	p.Form().Set(validation.FieldConfirmPassword, "Fresh")

	ok, err = p.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{validation.FieldNewPassword, validation.FieldConfirmPassword}, p.Form().InvalidFields())
	h.assertShowing(t, notify.Danger, "Passwords Not Match!")

	assert.Equal(t, 0, h.fake.TotalCalls())
}

func TestChangePasswordLoadWithoutSession(t *testing.T) {
	h := newHarness(t)
	p := NewChangePasswordPage(h.deps, "alice")

	active, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, h.fake.BaseURL(), h.history.Current().String())
	assert.Equal(t, 1, h.history.Navigations())
}

func TestRegisterMismatchMakesNoRequest(t *testing.T) {
	h := newHarness(t)
	p := NewRegisterPage(h.deps)
	p.Form().Set(validation.FieldUser, "bob")
	p.Form().Set(validation.FieldPassword, "one")
	p.Form().Set(validation.FieldConfirmPassword, "two")

	result, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success)

	assert.Equal(t, 0, h.fake.TotalCalls())
	assert.Equal(t, []string{validation.FieldPassword, validation.FieldConfirmPassword}, p.Form().InvalidFields())
	h.assertShowing(t, notify.Danger, "Passwords Not Match!")
}

func TestRegisterRefusals(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(f *testhelpers.FakeAuthServer)
		user    string
		invalid []string
		body    string
		reason  client.RegistrationError
	}{
		{
			name:    "invalid invitation",
			setup:   func(f *testhelpers.FakeAuthServer) { f.InvitationCode = "letmein" },
			user:    "bob",
			invalid: []string{validation.FieldInvitation},
			body:    "The invitation code you submitted is invalid.",
			reason:  client.RegistrationErrorInvalidInvitation,
		},
		{
			name:    "duplicated user",
			setup:   func(f *testhelpers.FakeAuthServer) {},
			user:    "alice",
			invalid: []string{validation.FieldUser},
			body:    "This user name has been taken! Please use another user name.",
			reason:  client.RegistrationErrorDuplicatedUser,
		},
		{
			name:    "disabled",
			setup:   func(f *testhelpers.FakeAuthServer) { f.RegistrationEnabled = false },
			user:    "bob",
			invalid: []string{},
			body:    "Register is not enabled by this site.",
			reason:  client.RegistrationErrorDisabled,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHarness(t)
			c.setup(h.fake)

			p := NewRegisterPage(h.deps)
			p.Form().Set(validation.FieldUser, c.user)
			p.Form().Set(validation.FieldPassword, "pw")
			p.Form().Set(validation.FieldConfirmPassword, "pw")
			p.Form().Set(validation.FieldInvitation, "guess")

			result, err := p.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, client.RegistrationResult{Error: c.reason}, result)

			assert.Equal(t, c.invalid, p.Form().InvalidFields())
			h.assertShowing(t, notify.Danger, "Register failed!")

			_, region := h.presenter.Snapshot()
			assert.Equal(t, c.body, region.Body)
			assert.Equal(t, 0, h.history.Navigations())
		})
	}
}

func TestRegisterUnknownError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("database is on fire"))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, nil, nil)
	require.NoError(t, err)

	presenter := notify.NewPresenter(nil, nil)
	p := NewRegisterPage(Deps{Auth: c, Presenter: presenter})
	p.Form().Set(validation.FieldUser, "bob")
	p.Form().Set(validation.FieldPassword, "pw")
	p.Form().Set(validation.FieldConfirmPassword, "pw")

	result, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.RegistrationErrorUnknown, result.Error)

	_, region := presenter.Snapshot()
	assert.Equal(t, "Unknown error occurred.", region.Body)
}

func TestRegisterSuccessGoesHome(t *testing.T) {
	h := newHarness(t)
	p := NewRegisterPage(h.deps)

	ok, err := p.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	p.Form().Set(validation.FieldUser, "bob")
	p.Form().Set(validation.FieldPassword, "pw")
	p.Form().Set(validation.FieldConfirmPassword, "pw")

	result, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)

	h.assertShowing(t, notify.Success, "Successfully Registered")
	assert.Equal(t, h.fake.BaseURL(), h.history.Current().String())
	assert.True(t, h.fake.VerifyPassword("bob", "pw"))
}

func TestRegisterLoadWithSession(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice", "password")

	ok, err := NewRegisterPage(h.deps).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, h.history.Navigations())
}

func TestPostLoginLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice", "password")

	ok, err := NewPostLoginPage(h.deps).Logout(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, h.fake.BaseURL()+"?logout=True", h.history.Current().String())
	assert.Equal(t, 0, h.fake.SessionCount())
}

func TestPostLoginLogoutRefused(t *testing.T) {
	stub := newStubAuth(t, map[string]int{"GET /logout": http.StatusInternalServerError})
	history := NewHistory(stub.client.BaseURL())
	presenter := notify.NewPresenter(nil, nil)

	ok, err := NewPostLoginPage(Deps{Auth: stub.client, Presenter: presenter, Navigator: history}).Logout(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, stub.client.BaseURL().String()+"?logout=True", history.Current().String())
	assert.Equal(t, 1, stub.calls("GET /logout"))
	assert.Equal(t, notify.None, presenter.Current())
}

func TestForbiddenPage(t *testing.T) {
	h := newHarness(t)
	h.fake.AddUser(t, "root", "password", "default", "admin")
	p := NewForbiddenPage(h.deps)

	result, err := p.Load(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, client.AccessUnauthenticated, result)
	h.assertShowing(t, notify.Warning, "Authentication Needed")

	h.login(t, "alice", "password")
	result, err = p.Load(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, client.AccessForbidden, result)
	h.assertShowing(t, notify.Danger, "Forbidden")

	h.login(t, "root", "password")
	result, err = p.Load(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, client.AccessGranted, result)
	h.assertShowing(t, notify.Success, "Access Granted")
}

func TestNetworkFailureIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := client.New(srv.URL, nil, nil)
	require.NoError(t, err)
	srv.Close()

	presenter := notify.NewPresenter(nil, nil)
	p := NewLoginPage(Deps{Auth: c, Presenter: presenter}, "", false)
	p.Form().Set(validation.FieldUser, "alice")
	p.Form().Set(validation.FieldPassword, "password")

	ok, err := p.Submit(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)

	current, region := presenter.Snapshot()
	assert.Equal(t, notify.Danger, current)
	assert.Equal(t, "Network Error", region.Title)
}

// stubAuth answers each "METHOD /path" with a fixed status; anything else is a 404.
type stubAuth struct {
	client *client.Client
	mu     sync.Mutex
	hits   map[string]int
}

func newStubAuth(t *testing.T, statuses map[string]int) *stubAuth {
	t.Helper()

	stub := &stubAuth{hits: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		stub.mu.Lock()
		stub.hits[key]++
		stub.mu.Unlock()

		status, ok := statuses[key]
		if !ok {
			status = http.StatusNotFound
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, nil, nil)
	require.NoError(t, err)
	stub.client = c

	return stub
}

func (s *stubAuth) calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hits[key]
}

// blockingAuth holds Login until release is closed.
type blockingAuth struct {
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
	logins  int
}

func (b *blockingAuth) CheckSession(ctx context.Context) (bool, error) { return false, nil }

func (b *blockingAuth) CheckAccess(ctx context.Context, privileges ...string) (client.AccessResult, error) {
	return client.AccessUnauthenticated, nil
}

func (b *blockingAuth) Login(ctx context.Context, creds client.Credentials) (bool, error) {
	b.mu.Lock()
	b.logins++
	b.mu.Unlock()

	close(b.entered)
	<-b.release
	return true, nil
}

func (b *blockingAuth) Logout(ctx context.Context) (bool, error) { return true, nil }

func (b *blockingAuth) ChangePassword(ctx context.Context, req client.PasswordChangeRequest) (bool, error) {
	return true, nil
}

func (b *blockingAuth) Register(ctx context.Context, req client.RegistrationRequest) (client.RegistrationResult, error) {
	return client.RegistrationResult{Success: true}, nil
}

func TestDoubleSubmitIsRefused(t *testing.T) {
	auth := &blockingAuth{entered: make(chan struct{}), release: make(chan struct{})}
	start, _ := url.Parse("http://example.com/")
	history := NewHistory(start)

	p := NewLoginPage(Deps{Auth: auth, Navigator: history}, "", false)
	p.Form().Set(validation.FieldUser, "alice")
	p.Form().Set(validation.FieldPassword, "password")

	done := make(chan error)
	go func() {
		_, err := p.Submit(context.Background())
		done <- err
	}()

	<-auth.entered

	_, err := p.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(auth.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, auth.logins)
	assert.Equal(t, 1, history.Navigations())
}
