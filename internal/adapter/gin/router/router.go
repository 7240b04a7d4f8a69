package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-directory-service/api/openapi"
	"user-directory-service/internal/adapter/gin/handler"
	"user-directory-service/internal/adapter/gin/middleware"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "user-directory-service"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the router wires together. RateLimiter and Redis may be nil.
type Deps struct {
	Users       *handler.UserHandler
	Ledger      *handler.LedgerHandler
	Admin       middleware.TokenVerifier
	RateLimiter *middleware.RateLimiter
	Redis       Pinger
	Log         *zap.Logger
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(d.Log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(d.Log))
	router.Use(d.RateLimiter.Handler())

	router.GET("/health", health(d.Redis))

	router.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openapi.Spec)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	admin := middleware.AdminAuth(d.Admin, d.Log)

	users := router.Group("/users")
	{
		users.POST("", admin, d.Users.CreateUser)
		users.GET("/:id", d.Users.GetUser)
		users.PATCH("/:id", d.Users.UpdateUser)
		users.GET("/:id/balance", d.Ledger.GetBalance)
		users.GET("/:id/approve", d.Ledger.Approve)
		users.GET("/:id/balances-by-merchant", d.Ledger.BalancesByMerchant)
	}

	transactions := router.Group("/transactions")
	{
		transactions.POST("", admin, d.Ledger.RecordTransaction)
		transactions.GET("/by-user/:id", d.Ledger.ListTransactions)
	}

	return router
}

func health(redis Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "healthy",
			"service": ServiceName,
		}

		if redis != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()
			if err := redis.Ping(ctx); err != nil {
				body["redis"] = "unavailable"
			} else {
				body["redis"] = "ok"
			}
		}

		c.JSON(http.StatusOK, body)
	}
}
