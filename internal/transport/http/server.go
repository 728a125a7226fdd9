package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"snapcaption/internal/bootstrap"
	"snapcaption/internal/transport/http/handler"
	"snapcaption/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Logger.Named("http")), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			middleware.HeaderRequestID,
		},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}))

	healthHandler := handler.NewHealthHandler(app)
	moodHandler := handler.NewMoodHandler()
	processHandler := handler.NewProcessHandler(app.Images, app.Config.MaxUploadBytes(), app.Logger)

	router.GET("/healthz", healthHandler.Check)

	processChain := processMiddleware(app)
	processChain = append(processChain, processHandler.Process)
	router.POST("/process-image", processChain...)

	v1 := router.Group("/api/v1")
	v1.GET("/moods", moodHandler.List)
	v1.POST("/process-image", processChain...)

	return router
}

// processMiddleware guards the processing routes with auth and rate limiting when
// they are configured.
func processMiddleware(app *bootstrap.App) []gin.HandlerFunc {
	var chain []gin.HandlerFunc
	if app.Config.AuthEnabled() {
		chain = append(chain, middleware.AuthJWT(app.Config.Auth.JWTSecret, app.Config.Auth.Issuer))
	}
	if app.Limiter != nil {
		chain = append(chain, middleware.RateLimit(app.Limiter, app.Logger.Named("ratelimit")))
	}
	return chain
}
