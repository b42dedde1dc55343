package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portfolioUC "github.com/khoahotran/portfolio-editor/internal/application/usecase/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

type PortfolioHandler struct {
	getPortfolioUC *portfolioUC.GetPortfolioUseCase
	logger         logger.Logger
}

func NewPortfolioHandler(uc *portfolioUC.GetPortfolioUseCase, log logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		getPortfolioUC: uc,
		logger:         log,
	}
}

// GetPortfolio serves the persisted record as the home page renders it.
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	output, err := h.getPortfolioUC.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, output.Record)
}
