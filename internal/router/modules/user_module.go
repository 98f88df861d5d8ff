package modules

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/warungmbahmanto/backend-api/internal/interface/http"
)

// UserModule mounts the credential lifecycle under /api/users. Login and
// register carry their own rate limiters; everything after profile requires a
// live session.
type UserModule struct {
	Handler       *apphttp.AuthHandler
	AuthMW        gin.HandlerFunc
	LoginLimit    gin.HandlerFunc
	RegisterLimit gin.HandlerFunc
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/users")

	register := m.Handler.Register
	if m.RegisterLimit != nil {
		g.POST("/register", m.RegisterLimit, register)
	} else {
		g.POST("/register", register)
	}
	login := m.Handler.Login
	if m.LoginLimit != nil {
		g.POST("/login", m.LoginLimit, login)
	} else {
		g.POST("/login", login)
	}

	g.POST("/verify-otp", m.Handler.VerifyRegister)
	g.POST("/resend-otp", m.Handler.ResendOtp)
	g.POST("/forgot-password", m.Handler.ForgotPassword)
	g.POST("/verify-reset-password", m.Handler.VerifyResetOtp)
	g.POST("/reset-password", m.Handler.ResetPassword)

	protected := g.Group("")
	protected.Use(m.AuthMW)
	protected.POST("/logout", m.Handler.Logout)
	protected.GET("/profile", m.Handler.Profile)
}
