package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/idstack/identity-service/internal/interface/http"
	"github.com/idstack/identity-service/internal/interface/middleware"
	"github.com/idstack/identity-service/pkg/helpers"
)

// IdentityModule mounts registration, verification, login, password reset,
// and the authenticated current-user route.
type IdentityModule struct {
	Registration *handlers.RegistrationHandler
	Auth         *handlers.AuthHandler
	Password     *handlers.PasswordHandler
	JWT          *helpers.JWTManager
}

func NewIdentityModule(
	reg *handlers.RegistrationHandler,
	auth *handlers.AuthHandler,
	pwd *handlers.PasswordHandler,
	jwt *helpers.JWTManager,
) *IdentityModule {
	return &IdentityModule{Registration: reg, Auth: auth, Password: pwd, JWT: jwt}
}

func (m *IdentityModule) Register(rg *gin.RouterGroup) {
	rg.POST("/register/email", m.Registration.RegisterWithEmail)
	rg.POST("/register/phone", m.Registration.RegisterWithPhone)
	rg.POST("/register/telegram", m.Registration.RegisterWithTelegram)

	rg.POST("/verify-email", m.Registration.VerifyEmail)
	rg.POST("/verify-phone", m.Registration.VerifyPhone)
	rg.POST("/verify-telegram", m.Registration.VerifyTelegram)

	rg.POST("/login/email", m.Auth.LoginWithEmail)
	rg.POST("/login/phone", m.Auth.LoginWithPhone)
	rg.POST("/login/telegram", m.Auth.LoginWithTelegram)

	rg.POST("/password/request-reset", m.Password.RequestReset)
	rg.POST("/password/reset", m.Password.Reset)

	authed := rg.Group("/")
	authed.Use(middleware.JWTAuth(m.JWT))
	{
		authed.GET("/user", m.Auth.Me)
	}
}
