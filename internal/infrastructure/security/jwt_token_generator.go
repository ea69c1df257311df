package security

import (
	"github.com/idstack/identity-service/internal/application"
	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/pkg/helpers"
)

// JWTTokenGenerator issues signed bearer tokens. Token format is opaque to
// the domain; callers only see a string.
type JWTTokenGenerator struct {
	JWT *helpers.JWTManager
}

func NewJWTTokenGenerator(jwt *helpers.JWTManager) *JWTTokenGenerator {
	return &JWTTokenGenerator{JWT: jwt}
}

func (g *JWTTokenGenerator) GenerateToken(user *entity.User) (string, error) {
	token, _, err := g.JWT.GenerateToken(user.ID().String())
	return token, err
}

var _ application.AuthTokenGenerator = (*JWTTokenGenerator)(nil)
