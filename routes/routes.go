package routes

import (
	"net/http"

	"salonpro-frontdesk/config"
	"salonpro-frontdesk/controllers"
	"salonpro-frontdesk/services"
	"salonpro-frontdesk/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps is everything the router needs to build its handlers.
type Deps struct {
	Config      config.Config
	DB          *gorm.DB
	Log         zerolog.Logger
	Activities  *services.ActivityService
	Appointment *services.AppointmentService
	Waitlist    *services.WaitlistService
	RateLimiter *utils.RateLimiter // optional
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger(d.Log))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			utils.RespondWithError(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := utils.AuthMiddleware(d.Config.Auth.JWTSecret)

	authController := controllers.NewAuthController(d.DB, d.Config.Auth, d.Log)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.GET("/me", authMiddleware, authController.Me)
	}

	api := r.Group("/api")
	api.Use(authMiddleware)
	{
		appointmentController := controllers.NewAppointmentController(d.Appointment, d.Log)
		appointments := api.Group("/appointments")
		{
			appointments.POST("", appointmentController.Create)
			appointments.GET("", appointmentController.List)
			appointments.GET("/:id", appointmentController.Get)
			appointments.POST("/:id/check-in", appointmentController.CheckIn)
			appointments.POST("/:id/complete", appointmentController.Complete)
			appointments.POST("/:id/cancel", appointmentController.Cancel)
			appointments.POST("/:id/no-show", appointmentController.NoShow)
		}

		waitlistController := controllers.NewWaitlistController(d.Waitlist, d.Log)
		waitlist := api.Group("/waitlist")
		{
			waitlist.POST("", waitlistController.Join)
			waitlist.GET("", waitlistController.List)
			waitlist.GET("/:id", waitlistController.Get)
			waitlist.PUT("/:id", waitlistController.Update)
			waitlist.DELETE("/:id", waitlistController.Remove)
			waitlist.POST("/:id/notify", waitlistController.Notify)
			waitlist.POST("/:id/seat", waitlistController.Seat)
		}

		customerController := controllers.NewCustomerController(d.DB, d.Activities, d.Log)
		customers := api.Group("/customers")
		{
			customers.POST("", customerController.Create)
			customers.GET("", customerController.List)
			customers.GET("/:id", customerController.Get)
			customers.PUT("/:id", customerController.Update)
			customers.DELETE("/:id", customerController.Delete)
			customers.GET("/:id/activities", customerController.Activities)
		}

		serviceController := controllers.NewServiceController(d.DB, d.Log)
		svc := api.Group("/services")
		{
			svc.POST("", serviceController.Create)
			svc.GET("", serviceController.List)
			svc.GET("/:id", serviceController.Get)
			svc.PUT("/:id", serviceController.Update)
			svc.DELETE("/:id", serviceController.Delete)
		}

		locationController := controllers.NewLocationController(d.DB, d.Log)
		locations := api.Group("/locations")
		{
			locations.GET("", locationController.List)
			locations.POST("", locationController.Create)
			locations.PUT("/:id", locationController.Update)
		}

		templateController := controllers.NewReminderTemplateController(d.DB, d.Log)
		templates := api.Group("/reminder-templates")
		{
			templates.POST("", templateController.Create)
			templates.GET("", templateController.List)
			templates.GET("/:id", templateController.Get)
			templates.PUT("/:id", templateController.Update)
			templates.DELETE("/:id", templateController.Delete)
		}

		dashboardController := controllers.NewDashboardController(d.DB, d.Activities, d.Waitlist, d.Log)
		api.GET("/dashboard", dashboardController.Overview)
	}

	return r
}
