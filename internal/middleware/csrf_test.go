package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

const testCSRFSecret = "test-secret-key-for-csrf"

// csrfRouter mounts the page stack used by the site: Visitor, then CSRF.
// GET /favoritos echoes the token handed to templates.
func csrfRouter(secret string) *gin.Engine {
	r := gin.New()
	r.Use(Visitor(false), CSRF(secret))
	r.GET("/favoritos", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.POST("/favoritos", ok)
	r.DELETE("/favoritos/:id", ok)
	r.POST("/tema", ok)
	r.PUT("/moneda", ok)
	r.PATCH("/moneda", ok)
	return r
}

type csrfSession struct {
	visitor string
	token   string
}

func cookieValue(w *httptest.ResponseRecorder, name string) (string, bool) {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// openSession loads a page as a new visitor and returns its cookies.
func openSession(t *testing.T, r http.Handler) csrfSession {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/favoritos", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /favoritos = %d", w.Code)
	}
	visitor, _ := cookieValue(w, VisitorCookie)
	token, ok := cookieValue(w, csrfCookieName)
	if !ok || token == "" || visitor == "" {
		t.Fatalf("missing cookies: visitor=%q token=%q", visitor, token)
	}
	if w.Body.String() != token {
		t.Fatalf("template token %q != cookie %q", w.Body.String(), token)
	}
	return csrfSession{visitor: visitor, token: token}
}

func (s csrfSession) request(method, target string, body url.Values) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if s.visitor != "" {
		req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: s.visitor})
	}
	if s.token != "" {
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: s.token})
	}
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCSRF_IssuesVisitorBoundToken(t *testing.T) {
	r := csrfRouter(testCSRFSecret)
	s := openSession(t, r)

	if !validToken(s.token, testCSRFSecret, s.visitor) {
		t.Error("token does not verify for its visitor")
	}
	if validToken(s.token, testCSRFSecret, "otro-visitante") {
		t.Error("token verifies for a different visitor")
	}

	w := serve(r, s.request(http.MethodGet, "/favoritos", nil))
	if _, reissued := cookieValue(w, csrfCookieName); reissued {
		t.Error("valid token was reissued")
	}
	if w.Body.String() != s.token {
		t.Errorf("token = %q; want %q", w.Body.String(), s.token)
	}
}

func TestCSRF_CookieAttributes(t *testing.T) {
	w := serve(csrfRouter(testCSRFSecret), httptest.NewRequest(http.MethodGet, "/favoritos", nil))
	for _, c := range w.Result().Cookies() {
		if c.Name != csrfCookieName {
			continue
		}
		if c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteStrictMode {
			t.Errorf("cookie = %+v; want readable, path /, SameSite=Strict", c)
		}
		return
	}
	t.Fatal("csrf cookie not set")
}

func TestCSRF_ReissuesForeignOrBrokenToken(t *testing.T) {
	r := csrfRouter(testCSRFSecret)
	a := openSession(t, r)
	b := openSession(t, r)

	for name, token := range map[string]string{
		"garbage":       "garbage",
		"other visitor": b.token,
		"wrong secret":  mustGenerateToken("otra-clave", a.visitor),
	} {
		t.Run(name, func(t *testing.T) {
			s := csrfSession{visitor: a.visitor, token: token}
			w := serve(r, s.request(http.MethodGet, "/favoritos", nil))
			fresh, ok := cookieValue(w, csrfCookieName)
			if !ok || fresh == token {
				t.Fatalf("token not reissued: %q", fresh)
			}
			if !validToken(fresh, testCSRFSecret, a.visitor) {
				t.Error("reissued token is invalid")
			}
		})
	}
}

func TestCSRF_UnsafeMethodsAcceptEchoedToken(t *testing.T) {
	r := csrfRouter(testCSRFSecret)
	s := openSession(t, r)

	tests := []struct {
		name   string
		method string
		target string
		form   bool
	}{
		{"form field", http.MethodPost, "/tema", true},
		{"header post", http.MethodPost, "/favoritos", false},
		{"header delete", http.MethodDelete, "/favoritos/c1?vista=lista", false},
		{"header put", http.MethodPut, "/moneda", false},
		{"header patch", http.MethodPatch, "/moneda", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.form {
				req = s.request(tt.method, tt.target, url.Values{"theme": {"dark"}, csrfFormField: {s.token}})
			} else {
				req = s.request(tt.method, tt.target, nil)
				req.Header.Set(csrfHeaderName, s.token)
			}
			if w := serve(r, req); w.Code != http.StatusOK {
				t.Fatalf("status = %d; body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCSRF_Rejections(t *testing.T) {
	r := csrfRouter(testCSRFSecret)
	s := openSession(t, r)
	other := openSession(t, r)
	_, sig, _ := strings.Cut(s.token, ".")

	tests := []struct {
		name    string
		session csrfSession
		sent    string
		wantMsg string
	}{
		{"no cookie", csrfSession{visitor: s.visitor}, s.token, "CSRF token missing"},
		{"no echoed token", s, "", "CSRF token missing"},
		{"mismatch", s, other.token, "CSRF token invalid"},
		{"stolen pair", csrfSession{visitor: s.visitor, token: other.token}, other.token, "CSRF token invalid"},
		{"tampered nonce", csrfSession{visitor: s.visitor, token: "00." + sig}, "00." + sig, "CSRF token invalid"},
		{"empty nonce", csrfSession{visitor: s.visitor, token: "." + sig}, "." + sig, "CSRF token invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.session.request(http.MethodPost, "/favoritos", nil)
			if tt.sent != "" {
				req.Header.Set(csrfHeaderName, tt.sent)
			}
			w := serve(r, req)
			if w.Code != http.StatusForbidden {
				t.Fatalf("status = %d; want 403", w.Code)
			}
			if !strings.Contains(w.Body.String(), `"message":"`+tt.wantMsg+`"`) {
				t.Errorf("body = %s; want message %q", w.Body.String(), tt.wantMsg)
			}
		})
	}
}

func TestCSRF_HTMXRejectionShowsToast(t *testing.T) {
	r := csrfRouter(testCSRFSecret)
	req := httptest.NewRequest(http.MethodPost, "/tema", nil)
	req.Header.Set("HX-Request", "true")
	w := serve(r, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d; want 403", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q; want empty", w.Body.String())
	}
	if w.Header().Get("HX-Reswap") != "none" {
		t.Errorf("HX-Reswap = %q", w.Header().Get("HX-Reswap"))
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), "sesión expiró") {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
}

func TestCSRF_EmptySecret(t *testing.T) {
	for _, secret := range []string{"", "   "} {
		w := serve(csrfRouter(secret), httptest.NewRequest(http.MethodGet, "/favoritos", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("secret %q: status = %d; want 500", secret, w.Code)
		}
	}
}

func TestCSRF_OnlyWrapsPageGroup(t *testing.T) {
	r := gin.New()
	pages := r.Group("/")
	pages.Use(CSRF(testCSRFSecret))
	pages.POST("/newsletter", func(c *gin.Context) { c.String(http.StatusOK, "page") })
	api := r.Group("/api/v1")
	api.POST("/newsletter", func(c *gin.Context) { c.String(http.StatusOK, "api") })

	if w := serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/newsletter", nil)); w.Code != http.StatusOK {
		t.Errorf("API POST = %d; want 200", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodPost, "/newsletter", nil)); w.Code != http.StatusForbidden {
		t.Errorf("page POST = %d; want 403", w.Code)
	}
}

func mustGenerateToken(secret, visitor string) string {
	token, err := generateToken(secret, visitor)
	if err != nil {
		panic(err)
	}
	return token
}
