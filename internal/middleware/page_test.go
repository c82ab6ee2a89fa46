package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
)

type stubThemes struct {
	theme domain.Theme
	err   error
	seen  string
}

func (s *stubThemes) Theme(_ context.Context, visitor string) (domain.Theme, error) {
	s.seen = visitor
	return s.theme, s.err
}

func TestTheme_SetsVisitorTheme(t *testing.T) {
	gin.SetMode(gin.TestMode)
	src := &stubThemes{theme: domain.ThemeDark}

	var got gin.H
	r := gin.New()
	r.Use(Visitor(false), Theme(src))
	r.GET("/", func(c *gin.Context) {
		got = PageData(c, gin.H{"Title": "Inicio"})
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if src.seen == "" {
		t.Fatal("theme source was not asked for the visitor")
	}
	if got["Theme"] != "dark" {
		t.Errorf("Theme = %v; want dark", got["Theme"])
	}
	if got["Path"] != "/" {
		t.Errorf("Path = %v; want /", got["Path"])
	}
	if got["Title"] != "Inicio" {
		t.Errorf("Title = %v; want Inicio", got["Title"])
	}
}

func TestTheme_FallsBackToSystem(t *testing.T) {
	gin.SetMode(gin.TestMode)
	src := &stubThemes{err: errors.New("db down")}

	var theme domain.Theme
	r := gin.New()
	r.Use(Theme(src))
	r.GET("/", func(c *gin.Context) {
		theme = GetTheme(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if theme != domain.ThemeSystem {
		t.Errorf("theme = %q; want system", theme)
	}
}

func TestPageData_KeepsHandlerValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/cursos", nil)

	data := PageData(c, gin.H{"Path": "/custom"})
	if data["Path"] != "/custom" {
		t.Errorf("Path = %v; want /custom", data["Path"])
	}
	if data["Theme"] != "system" {
		t.Errorf("Theme = %v; want system", data["Theme"])
	}
	if _, ok := data["CSRFToken"]; !ok {
		t.Error("CSRFToken key missing")
	}
}
