package express_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	tokenHeader  = "X-XSRF-TOKEN"
	goodEmail    = "lab@example.com"
	goodPassword = "secret"
	sessionValue = "session-1"
)

// fakeExpress mimics the Express endpoints the client uses.
type fakeExpress struct {
	t      *testing.T
	server *httptest.Server

	tokenCalls atomic.Int32
	pingCalls  atomic.Int32
	requests   atomic.Int32

	mu        sync.Mutex
	lastToken string
	expires   time.Time
	loggedOut bool

	status  http.HandlerFunc
	filter  http.HandlerFunc
	qualify http.HandlerFunc
	upload  http.HandlerFunc
}

func newFakeExpress(t *testing.T) *fakeExpress {
	t.Helper()
	f := &fakeExpress{t: t, expires: time.Now().Add(24 * time.Hour)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/xsrf/get/", f.handleToken)
	mux.HandleFunc("GET /Home/Ping", f.handlePing)
	mux.HandleFunc("POST /Home/LoginApi", f.requireToken(f.handleLogin))
	mux.HandleFunc("GET /home/logout/", f.handleLogout)
	mux.HandleFunc("POST /api/Results/ForOrder", f.requireToken(f.dispatch(func() http.HandlerFunc { return f.status })))
	mux.HandleFunc("POST /api/Qualification/Filter", f.requireToken(f.dispatch(func() http.HandlerFunc { return f.filter })))
	mux.HandleFunc("POST /api/Qualification/Qualify", f.requireToken(f.dispatch(func() http.HandlerFunc { return f.qualify })))
	mux.HandleFunc("POST /api/Streaming/Upload/", f.requireToken(f.dispatch(func() http.HandlerFunc { return f.upload })))

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeExpress) URL() string {
	return f.server.URL
}

func (f *fakeExpress) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastToken
}

func (f *fakeExpress) handleToken(w http.ResponseWriter, _ *http.Request) {
	n := f.tokenCalls.Add(1)
	token := fmt.Sprintf("tok-%d", n)
	f.mu.Lock()
	f.lastToken = token
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"token":%q,"tokenName":%q}`, token, tokenHeader)
}

func (f *fakeExpress) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie("autodontix")
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cookie.Value == sessionValue && !f.loggedOut
}

func (f *fakeExpress) handlePing(w http.ResponseWriter, r *http.Request) {
	f.pingCalls.Add(1)
	if !f.authenticated(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeExpress) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("email") != goodEmail || r.PostForm.Get("password") != goodPassword {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.mu.Lock()
	f.loggedOut = false
	expires := f.expires
	f.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: "autodontix", Value: sessionValue, Path: "/", Expires: expires, HttpOnly: true})
	w.WriteHeader(http.StatusOK)
}

func (f *fakeExpress) handleLogout(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	f.loggedOut = true
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeExpress) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(tokenHeader); got == "" || got != f.currentToken() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		next(w, r)
	}
}

func (f *fakeExpress) dispatch(pick func() http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		h := pick()
		f.mu.Unlock()
		if h == nil {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		h(w, r)
	}
}

// on swaps the handler behind one endpoint.
func (f *fakeExpress) on(slot *http.HandlerFunc, h http.HandlerFunc) {
	f.mu.Lock()
	*slot = h
	f.mu.Unlock()
}
