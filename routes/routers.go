package routes

import (
	"pms/constants"
	"pms/controllers"
	"pms/middleware"
	"pms/repositories"
	"pms/services"
	"pms/services/logger"

	"github.com/gin-gonic/gin"
)

// Dependencies is everything the HTTP layer needs, built once in main.
type Dependencies struct {
	Repo         repositories.Repository
	Settings     services.SettingsProvider
	Availability *services.AvailabilityService
	Conflicts    *services.ConflictService
	Lifecycle    *services.LifecycleService
	Folios       *services.FolioService
	Credit       *services.CreditService
	Currency     *services.CurrencyService
	Logger       logger.Logger
	// JWTSecret verifies bearer tokens; empty accepts unsigned tokens.
	JWTSecret    string
	BaseCurrency string
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	availabilityController := controllers.NewAvailabilityController(deps.Availability)
	roomController := controllers.NewRoomController(deps.Repo, deps.Conflicts, deps.Lifecycle)
	folioController := controllers.NewFolioController(deps.Folios, deps.Credit)
	exchangeController := controllers.NewExchangeController(deps.Currency)

	staff := middleware.AuthMiddleware(deps.JWTSecret, constants.RoleSuperAdmin, constants.RoleAdmin, constants.RoleReceptionist)

	v1 := router.Group("/api/v1")
	v1.Use(
		middleware.ErrorHandler(deps.Logger),
		middleware.AuthMiddleware(deps.JWTSecret),
		middleware.PropertyMiddleware(middleware.PropertyOptions{
			Settings:     deps.Settings,
			BaseCurrency: deps.BaseCurrency,
		}),
	)

	v1.GET("/availability", availabilityController.CheckStock)
	v1.GET("/availability/summary", availabilityController.Summary)

	v1.GET("/rooms/:roomNo/overlap", roomController.Overlap)
	v1.GET("/rooms/:roomNo/calendar", roomController.Calendar)
	v1.GET("/rooms/:roomNo/status", roomController.Status)
	v1.POST("/rooms/:roomNo/hold", staff, roomController.SetHold)
	v1.DELETE("/rooms/:roomNo/hold", staff, roomController.UnsetHold)
	v1.POST("/rooms/:roomNo/ooo", staff, roomController.SetOOO)
	v1.DELETE("/rooms/:roomNo/ooo", staff, roomController.RemoveOOO)

	v1.POST("/folios", staff, folioController.PostTotals)
	v1.POST("/folios/credit-check", staff, folioController.CreditCheck)

	v1.GET("/exchange", exchangeController.Convert)
}

