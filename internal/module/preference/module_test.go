package preference

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestPreferenceModuleRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	NewModule(&PreferenceHandler{}, &PreferencePageHandler{}).
		RegisterRoutes(r.Group("/api"), r.Group("/"))

	expected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/favorites"},
		{http.MethodPost, "/api/favorites"},
		{http.MethodDelete, "/api/favorites/:id"},
		{http.MethodGet, "/api/theme"},
		{http.MethodPut, "/api/theme"},
		{http.MethodGet, "/favoritos"},
		{http.MethodPost, "/favoritos"},
		{http.MethodDelete, "/favoritos/:id"},
		{http.MethodPost, "/tema"},
	}

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, e := range expected {
		if !registered[e.method+" "+e.path] {
			t.Errorf("route %s %s not registered", e.method, e.path)
		}
	}
}

func TestNewModule_PanicsOnNil(t *testing.T) {
	tests := []struct {
		name string
		h    *PreferenceHandler
		ph   *PreferencePageHandler
	}{
		{"nil handler", nil, &PreferencePageHandler{}},
		{"nil page handler", &PreferenceHandler{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			NewModule(tt.h, tt.ph)
		})
	}
}
