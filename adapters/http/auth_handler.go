package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/portfolio-editor/internal/application/usecase/auth"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

type AuthHandler struct {
	loginUseCase *auth.LoginUseCase
	logger       logger.Logger
}

func NewAuthHandler(loginUC *auth.LoginUseCase, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		loginUseCase: loginUC,
		logger:       log,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("password is required", err))
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), auth.LoginInput{Password: req.Password})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": output.AccessToken,
	})
}
