package http

import (
	"github.com/go-identity-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-identity-api/internal/infrastructure/jwt"
	s3infra "github.com/go-identity-api/internal/infrastructure/s3"
	"github.com/go-identity-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo *dynamo.AccountRepo
	Mailer      smtp.Mailer
	S3Store     *s3infra.Store // nil disables the avatar mirror
	JWTProvider *jwtinfra.Provider
}
