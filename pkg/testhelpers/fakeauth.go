package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	FakeBasePath      = "/nslogin/"
	FakeSessionCookie = "session"
	DefaultPrivilege  = "default"
)

type fakeUser struct {
	hashword   []byte
	privileges []string
}

// FakeAuthServer mimics the remote login service: cookie sessions, a user
// table, optional registration with an invitation code.
type FakeAuthServer struct {
	Server *httptest.Server

	mu                  sync.Mutex
	users               map[string]*fakeUser
	sessions            map[string]string
	calls               map[string]int
	requestIDs          []string
	RegistrationEnabled bool
	InvitationCode      string
}

// NewFakeAuthServer starts a server that is closed when the test ends.
func NewFakeAuthServer(t *testing.T) *FakeAuthServer {
	t.Helper()

	f := &FakeAuthServer{
		users:               make(map[string]*fakeUser),
		sessions:            make(map[string]string),
		calls:               make(map[string]int),
		RegistrationEnabled: true,
	}

	f.Server = httptest.NewServer(f.Router())
	t.Cleanup(f.Server.Close)

	return f
}

// BaseURL is the page url the client is pointed at.
func (f *FakeAuthServer) BaseURL() string {
	return f.Server.URL + FakeBasePath
}

func (f *FakeAuthServer) Router() *gin.Engine {
	router := gin.New()
	router.Use(f.record)

	group := router.Group(FakeBasePath)
	group.GET("/", f.handleLanding)
	group.POST("/", f.handleLogin)
	group.GET("/auth", f.handleAuth)
	group.GET("/auth/*privileges", f.handleAuth)
	group.GET("/logout", f.handleLogout)
	group.POST("/changepassword", f.handleChangePassword)
	group.POST("/register", f.handleRegister)

	return router
}

// AddUser stores a user with a bcrypt hash. No privileges means "default".
func (f *FakeAuthServer) AddUser(t *testing.T, name string, password string, privileges ...string) {
	t.Helper()

	hashword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	if len(privileges) == 0 {
		privileges = []string{DefaultPrivilege}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[name] = &fakeUser{hashword: hashword, privileges: privileges}
}

func (f *FakeAuthServer) HasUser(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.users[name]
	return ok
}

// VerifyPassword reports whether password is the stored password for name.
func (f *FakeAuthServer) VerifyPassword(name string, password string) bool {
	f.mu.Lock()
	user, ok := f.users[name]
	f.mu.Unlock()

	if !ok {
		return false
	}

	return bcrypt.CompareHashAndPassword(user.hashword, []byte(password)) == nil
}

// Calls counts requests by "METHOD path", path relative to the base.
func (f *FakeAuthServer) Calls(method string, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[method+" "+path]
}

// TotalCalls counts every request the server received.
func (f *FakeAuthServer) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeAuthServer) RequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string{}, f.requestIDs...)
}

func (f *FakeAuthServer) SessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sessions)
}

func (f *FakeAuthServer) record(g *gin.Context) {
	path := strings.TrimPrefix(g.Request.URL.Path, FakeBasePath)

	f.mu.Lock()
	f.calls[g.Request.Method+" "+path]++
	if id := g.GetHeader("X-Request-ID"); id != "" {
		f.requestIDs = append(f.requestIDs, id)
	}
	f.mu.Unlock()

	g.Next()
}

func (f *FakeAuthServer) sessionUser(g *gin.Context) (string, bool) {
	token, err := g.Cookie(FakeSessionCookie)
	if err != nil {
		return "", false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.sessions[token]
	if !ok {
		return "", false
	}

	if _, ok := f.users[user]; !ok {
		return "", false
	}

	return user, true
}

func (f *FakeAuthServer) handleLanding(g *gin.Context) {
	g.String(http.StatusOK, "landing")
}

func (f *FakeAuthServer) handleAuth(g *gin.Context) {
	user, ok := f.sessionUser(g)
	if !ok {
		g.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	requested := []string{}
	for _, p := range strings.Split(strings.Trim(g.Param("privileges"), "/"), "/") {
		if p != "" {
			requested = append(requested, p)
		}
	}
	if len(requested) == 0 {
		requested = []string{DefaultPrivilege}
	}

	f.mu.Lock()
	held := f.users[user].privileges
	f.mu.Unlock()

	for _, want := range requested {
		if !contains(held, want) {
			g.String(http.StatusForbidden, "forbidden")
			return
		}
	}

	g.Status(http.StatusOK)
}

func (f *FakeAuthServer) handleLogin(g *gin.Context) {
	user, hasUser := g.GetPostForm("user")
	password, hasPassword := g.GetPostForm("password")
	if !hasUser || !hasPassword || !f.VerifyPassword(user, password) {
		g.AbortWithStatus(http.StatusForbidden)
		return
	}

	token := uuid.NewString()

	f.mu.Lock()
	f.sessions[token] = user
	f.mu.Unlock()

	g.SetCookie(FakeSessionCookie, token, 24*3600, FakeBasePath, "", false, true)
	g.Status(http.StatusOK)
}

func (f *FakeAuthServer) handleLogout(g *gin.Context) {
	if token, err := g.Cookie(FakeSessionCookie); err == nil {
		f.mu.Lock()
		delete(f.sessions, token)
		f.mu.Unlock()
	}

	g.SetCookie(FakeSessionCookie, "", -1, FakeBasePath, "", false, true)
	g.Redirect(http.StatusFound, "./?logout=True")
}

func (f *FakeAuthServer) handleChangePassword(g *gin.Context) {
	if _, ok := f.sessionUser(g); !ok {
		g.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	user := g.PostForm("user")
	if !f.VerifyPassword(user, g.PostForm("old-password")) {
		g.AbortWithStatus(http.StatusForbidden)
		return
	}

	hashword, err := bcrypt.GenerateFromPassword([]byte(g.PostForm("new-password")), bcrypt.MinCost)
	if err != nil {
		g.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	f.mu.Lock()
	f.users[user].hashword = hashword
	f.mu.Unlock()

	g.Status(http.StatusOK)
}

func (f *FakeAuthServer) handleRegister(g *gin.Context) {
	f.mu.Lock()
	enabled := f.RegistrationEnabled
	code := f.InvitationCode
	f.mu.Unlock()

	if !enabled {
		g.String(http.StatusForbidden, "disabled")
		return
	}

	if code != "" && g.PostForm("invitation") != code {
		g.String(http.StatusForbidden, "invitation")
		return
	}

	user := g.PostForm("user")
	if user == "" || g.PostForm("password") == "" {
		g.String(http.StatusBadRequest, "invalid")
		return
	}

	if f.HasUser(user) {
		g.String(http.StatusConflict, "duplicated")
		return
	}

	hashword, err := bcrypt.GenerateFromPassword([]byte(g.PostForm("password")), bcrypt.MinCost)
	if err != nil {
		g.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	f.mu.Lock()
	f.users[user] = &fakeUser{hashword: hashword, privileges: []string{DefaultPrivilege}}
	f.mu.Unlock()

	g.Status(http.StatusOK)
}

func contains(list []string, s string) bool {
	for _, each := range list {
		if each == s {
			return true
		}
	}

	return false
}
