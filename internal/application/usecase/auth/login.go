package auth

import (
	"context"
	"errors"

	"github.com/khoahotran/portfolio-editor/pkg/apperror"
	"github.com/khoahotran/portfolio-editor/pkg/auth"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
	"go.opentelemetry.io/otel"
)

var (
	ErrInvalidCredentials = errors.New("password is incorrect")
	ErrOwnerNotConfigured = errors.New("no owner password is configured")
)

type LoginUseCase struct {
	passwordHash string
	jwtSvc       *auth.JWTService
	logger       logger.Logger
}

func NewLoginUseCase(passwordHash string, jwtSvc *auth.JWTService, log logger.Logger) *LoginUseCase {
	return &LoginUseCase{
		passwordHash: passwordHash,
		jwtSvc:       jwtSvc,
		logger:       log,
	}
}

type LoginInput struct {
	Password string
}

type LoginOutput struct {
	AccessToken string
}

var tracer = otel.Tracer("auth_usecase")

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	_, span := tracer.Start(ctx, "Execute")
	defer span.End()

	if uc.passwordHash == "" {
		err := apperror.NewUnauthorized("owner login is disabled", ErrOwnerNotConfigured)
		span.RecordError(err)
		return nil, err
	}

	if !auth.CheckPasswordHash(input.Password, uc.passwordHash) {
		err := apperror.NewUnauthorized("incorrect password", ErrInvalidCredentials)
		span.RecordError(err)
		return nil, err
	}

	token, err := uc.jwtSvc.GenerateToken()
	if err != nil {
		uc.logger.Error("Failed to generate token", err)
		err = apperror.NewInternal("failed to generate token", err)
		span.RecordError(err)
		return nil, err
	}
	return &LoginOutput{AccessToken: token}, nil
}
