package router

import (
	"github.com/idstack/identity-service/internal/application"
	"github.com/idstack/identity-service/internal/container"
	pginfra "github.com/idstack/identity-service/internal/infrastructure/postgres"
	"github.com/idstack/identity-service/internal/infrastructure/notification"
	"github.com/idstack/identity-service/internal/infrastructure/redisstore"
	"github.com/idstack/identity-service/internal/infrastructure/security"
	handlers "github.com/idstack/identity-service/internal/interface/http"
	"github.com/idstack/identity-service/internal/router/modules"
)

// InitModules wires repositories, services, and handlers from the container
// singletons and registers the feature modules. Call once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	users := pginfra.NewUserRepository(container.GetPGPool())
	codes := redisstore.NewVerificationCodeRepository(container.GetRedis(), logger)
	hasher := security.NewBcryptHasher()
	tokens := security.NewJWTTokenGenerator(container.GetJWT())
	queue := notification.NewQueueNotifier(container.GetRabbitPub(), logger)

	registration := application.NewRegistrationService(
		users, codes, hasher,
		queue.Email(), queue.SMS(), queue.Chat(),
		logger, cfg.VerificationCodeTTL,
	)
	authn := application.NewAuthenticationService(users, hasher, logger)
	reset := application.NewPasswordResetService(
		users, codes, hasher, queue.Email(),
		logger, cfg.PasswordResetCodeTTL,
	)

	r.Add(modules.NewIdentityModule(
		handlers.NewRegistrationHandler(registration, logger),
		handlers.NewAuthHandler(authn, tokens, logger),
		handlers.NewPasswordHandler(reset, logger),
		container.GetJWT(),
	))
}
