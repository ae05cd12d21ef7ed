// Package server assembles the gin engine of the ledger API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	apperrors "persacc/internal/errors"
	"persacc/internal/handlers"
	"persacc/internal/middleware"
	"persacc/internal/services"
	"persacc/internal/validator"
)

// Services bundles the core services the HTTP layer consumes.
type Services struct {
	Movements  services.MovementServicer
	Categories services.CategoryServicer
	Months     services.MonthServicer
	KPIs       services.KPIServicer
	Closing    services.ClosingServicer
}

// Options tunes the router.
type Options struct {
	// APIKey guards /api/v1 when non-empty.
	APIKey string
	// Swagger serves the API docs at /swagger/*any.
	Swagger bool
}

// NewRouter builds the engine with middleware, health check and the v1 routes.
func NewRouter(svc Services, opts Options) *gin.Engine {
	validator.Register()

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.APIKeyHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Error: handlers.ErrorDetail{Code: apperrors.ErrNotFound.Code, Message: apperrors.ErrNotFound.Message},
		})
	})

	movementHandler := handlers.NewMovementHandler(svc.Movements)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	kpiHandler := handlers.NewKPIHandler(svc.KPIs)
	monthHandler := handlers.NewMonthHandler(svc.Months, svc.Closing)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.APIKeyAuth(opts.APIKey))

	movements := v1.Group("/movements")
	movements.POST("", movementHandler.CreateMovement)
	movements.GET("", movementHandler.ListMovements)
	movements.GET("/search", movementHandler.SearchMovements)
	movements.GET("/years", movementHandler.AvailableYears)
	movements.GET("/:id", movementHandler.GetMovementByID)
	movements.PUT("/:id", movementHandler.UpdateMovement)
	movements.DELETE("/:id", movementHandler.DeleteMovement)

	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	kpis := v1.Group("/kpis")
	kpis.GET("/months/:month", kpiHandler.MonthKPIs)
	kpis.GET("/years/:year", kpiHandler.YearKPIs)

	months := v1.Group("/months")
	months.GET("", monthHandler.ListMonthStates)
	months.GET("/closed", monthHandler.ListClosedMonths)
	months.GET("/next", monthHandler.NextClosableMonth)
	months.GET("/:month", monthHandler.GetMonthState)
	months.GET("/:month/closed", monthHandler.IsMonthClosed)
	months.PUT("/:month/open", monthHandler.OpenMonth)
	months.POST("/:month/preview", monthHandler.PreviewClose)
	months.POST("/:month/close", monthHandler.CloseMonth)

	snapshots := v1.Group("/snapshots")
	snapshots.GET("", monthHandler.ListSnapshots)
	snapshots.GET("/latest", monthHandler.GetLatestSnapshot)
	snapshots.GET("/:month", monthHandler.GetSnapshot)

	return router
}
