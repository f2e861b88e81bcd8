package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/cashout/internal/server/http/handlers"
	"github.com/polkiloo/cashout/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.CashoutFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	withdrawalHandler := handlers.NewWithdrawalHandler(facade)
	reviewHandler := handlers.NewReviewHandler(facade)

	api := engine.Group("/api")

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	userAuth := user.Group("")
	userAuth.Use(middleware.AuthRequired(facade))
	userAuth.GET("/balance", withdrawalHandler.Balance)
	userAuth.POST("/withdrawals", withdrawalHandler.Submit)
	userAuth.GET("/withdrawals", withdrawalHandler.History)
	userAuth.GET("/withdrawals/pending", withdrawalHandler.Pending)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(facade), middleware.ReviewerRequired())
	admin.GET("/accounts", reviewHandler.Accounts)
	admin.GET("/withdrawals", reviewHandler.Withdrawals)
	admin.GET("/withdrawals/pending", reviewHandler.Queue)
	admin.POST("/accounts/:account/withdrawals/:id/:decision", reviewHandler.Review)
	admin.PUT("/accounts/:account/balance", reviewHandler.SetBalance)

	return engine
}
