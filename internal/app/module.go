package app

import "github.com/gin-gonic/gin"

// Module defines the contract for a self-registering business module.
// Each module registers its own API and page routes.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}

// RootModule is implemented by modules that also own paths outside the
// API and page groups, such as /robots.txt or /api/contacto. Those routes
// get neither the CSRF nor the theme middleware.
type RootModule interface {
	Module
	RegisterRootRoutes(r gin.IRouter)
}
