package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	csrfCookieName = "_csrf_token"
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfContextKey = "CSRFToken"
)

// CSRF protects the htmx form endpoints (contact, newsletter, favourites,
// theme, currency selector) with signed double-submit tokens of the form
// hex(nonce) + "." + base64url(HMAC-SHA256(secret, nonce + visitor id)).
// Binding the signature to the visitor cookie means a token lifted from one
// browser is useless in another.
//
// Safe methods issue a readable SameSite=Strict cookie when the visitor has
// no valid token and expose it to templates as "CSRFToken". Unsafe methods
// must echo the cookie in the "_csrf_token" form field or the X-CSRF-Token
// header, which the layout sets through hx-headers.
func CSRF(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return func(c *gin.Context) {
			denyCSRF(c, http.StatusInternalServerError, "csrf secret is required")
		}
	}

	secure := gin.Mode() == gin.ReleaseMode
	return func(c *gin.Context) {
		visitor := GetVisitorID(c)
		cookie, _ := c.Cookie(csrfCookieName)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if !validToken(cookie, secret, visitor) {
				var err error
				cookie, err = generateToken(secret, visitor)
				if err != nil {
					denyCSRF(c, http.StatusInternalServerError, "failed to generate CSRF token")
					return
				}
				setCSRFCookie(c, cookie, secure)
			}

		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			sent := c.PostForm(csrfFormField)
			if sent == "" {
				sent = c.GetHeader(csrfHeaderName)
			}
			switch {
			case cookie == "" || sent == "":
				denyCSRF(c, http.StatusForbidden, "CSRF token missing")
				return
			case !validToken(cookie, secret, visitor) || subtle.ConstantTimeCompare([]byte(cookie), []byte(sent)) != 1:
				denyCSRF(c, http.StatusForbidden, "CSRF token invalid")
				return
			}

		default:
			c.Next()
			return
		}

		c.Set(csrfContextKey, cookie)
		c.Next()
	}
}

// GetCSRFToken returns the token the CSRF middleware accepted or issued.
func GetCSRFToken(c *gin.Context) string {
	token, _ := c.Get(csrfContextKey)
	s, _ := token.(string)
	return s
}

func generateToken(secret, visitor string) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	n := hex.EncodeToString(nonce)
	return n + "." + signNonce(n, secret, visitor), nil
}

func signNonce(nonce, secret, visitor string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(nonce))
	mac.Write([]byte{0})
	mac.Write([]byte(visitor))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func validToken(token, secret, visitor string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(signNonce(nonce, secret, visitor))) == 1
}

func setCSRFCookie(c *gin.Context, token string, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// denyCSRF aborts with status. htmx callers keep their current content and
// see a toast; other callers get the JSON envelope.
func denyCSRF(c *gin.Context, status int, message string) {
	if IsHTMX(c) {
		msg := "Ocurrió un error inesperado. Inténtalo de nuevo."
		if status == http.StatusForbidden {
			msg = "Tu sesión expiró. Recarga la página e inténtalo de nuevo."
		}
		c.Header("HX-Reswap", "none")
		ShowToast(c, msg, ToastError)
		c.AbortWithStatus(status)
		return
	}
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"message": message,
		"data":    nil,
	})
}
