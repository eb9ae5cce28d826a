package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rentabot/rentabot/internal/config"
)

// legacyPrefix is the conventional legacy mount point, gated by
// internal/config's LegacyPrefixEnabled/LegacyRedirect toggles.
const legacyPrefix = "/api/v1"

// Mount registers the full route table under the current top-level paths
// and, if cfg enables it, once more under legacyPrefix — mirroring
// engine/auth/router.RegisterRoutes' single apiBase *gin.RouterGroup
// registration, generalized to register twice.
func Mount(router gin.IRouter, h *Handler, cfg *config.Config) {
	registerRoutes(router, h)

	if cfg == nil || !cfg.LegacyPrefixEnabled {
		return
	}

	legacy := router.Group(legacyPrefix)
	if cfg.LegacyRedirect {
		registerRedirects(legacy)
		return
	}
	legacy.Use(deprecationHeader)
	registerRoutes(legacy, h)
}

func registerRoutes(r gin.IRouter, h *Handler) {
	r.GET("/health", h.Health)
	r.GET("/readiness", h.Readiness)

	resources := r.Group("/resources")
	{
		resources.GET("", h.ListResources)
		resources.GET("/:id", h.GetResource)
		resources.POST("/lock", h.LockByCriterion)
		resources.POST("/:id/lock", h.LockResource)
		resources.POST("/:id/unlock", h.UnlockResource)
		resources.POST("/:id/extend", h.ExtendResource)
	}

	reservations := r.Group("/reservations")
	{
		reservations.POST("", h.CreateReservation)
		reservations.GET("", h.ListReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.POST("/:id/claim", h.ClaimReservation)
		reservations.DELETE("/:id", h.CancelReservation)
	}
}

// registerRedirects wires a 307 redirect from every legacy path to its
// current-prefix equivalent instead of serving the handlers twice.
func registerRedirects(legacy *gin.RouterGroup) {
	paths := []string{
		"/health", "/readiness",
		"/resources", "/resources/:id", "/resources/lock",
		"/resources/:id/lock", "/resources/:id/unlock", "/resources/:id/extend",
		"/reservations", "/reservations/:id",
		"/reservations/:id/claim",
	}
	for _, p := range paths {
		template := p
		legacy.Any(p, func(c *gin.Context) {
			target := template
			for _, param := range c.Params {
				target = strings.Replace(target, ":"+param.Key, param.Value, 1)
			}
			if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
				target += "?" + rawQuery
			}
			c.Redirect(http.StatusTemporaryRedirect, target)
		})
	}
}

func deprecationHeader(c *gin.Context) {
	c.Header("Deprecation", "true")
	c.Next()
}
