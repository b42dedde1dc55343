package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/portfolio-editor/internal/domain/draft"
	"github.com/khoahotran/portfolio-editor/pkg/auth"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

type RouterDeps struct {
	AuthHandler      *AuthHandler
	DraftHandler     *DraftHandler
	PortfolioHandler *PortfolioHandler
	JWTService       *auth.JWTService
	Logger           logger.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ErrorMiddleware(deps.Logger))
	// a little headroom over the upload limit for the multipart envelope
	router.MaxMultipartMemory = draft.MaxUploadBytes + 1<<20

	authMiddleware := AuthMiddleware(deps.JWTService, deps.Logger)

	api := router.Group("/api")
	{
		admin := api.Group("/admin")
		{
			adminAuth := admin.Group("/auth")
			adminAuth.POST("/login", deps.AuthHandler.Login)

			adminPrivate := admin.Group("/")
			adminPrivate.Use(authMiddleware)
			{
				drafts := adminPrivate.Group("/drafts")
				{
					drafts.POST("", deps.DraftHandler.OpenDraft)
					drafts.GET("/:id", deps.DraftHandler.GetDraft)
					drafts.DELETE("/:id", deps.DraftHandler.CloseDraft)
					drafts.PATCH("/:id/profile", deps.DraftHandler.UpdateProfile)
					drafts.POST("/:id/entries", deps.DraftHandler.AddEntry)
					drafts.PATCH("/:id/entries/:entryID", deps.DraftHandler.UpdateEntry)
					drafts.DELETE("/:id/entries/:entryID", deps.DraftHandler.RemoveEntry)
					drafts.PUT("/:id/images/:slot", deps.DraftHandler.SetImage)
					drafts.DELETE("/:id/images/:slot", deps.DraftHandler.RemoveImage)
					drafts.GET("/:id/preview", deps.DraftHandler.Preview)
					drafts.POST("/:id/save", deps.DraftHandler.Save)
				}
				adminPrivate.GET("/previews/:ref", deps.DraftHandler.ServePreviewImage)
			}
		}

		public := api.Group("/")
		{
			public.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
			public.GET("/portfolio", deps.PortfolioHandler.GetPortfolio)
		}
	}

	return router
}
