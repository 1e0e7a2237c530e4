package http

import (
	"github.com/gin-gonic/gin"

	"github.com/abdasg25/BioPass/ports"
	"github.com/abdasg25/BioPass/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(qr *service.QRSessionService, accounts *service.AccountService, tokenizer ports.Tokenizer) *gin.Engine {
	router := gin.Default()

	handlers := NewHandlers(qr, accounts)

	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", handlers.Signup)
		auth.POST("/login", handlers.Login)
		auth.GET("/userinfo", handlers.UserInfo)

		auth.POST("/generate-qr-session", handlers.GenerateQRSession)
		auth.POST("/poll-qr-session", handlers.PollQRSession)
		auth.POST("/verify-qr-session", handlers.VerifyQRSession)
	}

	// Routes reachable only from an authenticated mobile device.
	protected := router.Group("/api/auth")
	protected.Use(AuthMiddleware(tokenizer))
	{
		protected.POST("/activate-qr-session", handlers.ActivateQRSession)
		protected.POST("/register-device", handlers.RegisterDevice)
	}

	return router
}
