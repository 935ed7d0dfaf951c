package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/uni-reg-api/api/swagger"
	"github.com/noah-isme/uni-reg-api/internal/catalog"
	"github.com/noah-isme/uni-reg-api/internal/handler"
	"github.com/noah-isme/uni-reg-api/internal/middleware"
	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/repository"
	"github.com/noah-isme/uni-reg-api/internal/service"
	"github.com/noah-isme/uni-reg-api/pkg/cache"
	"github.com/noah-isme/uni-reg-api/pkg/config"
	"github.com/noah-isme/uni-reg-api/pkg/database"
	"github.com/noah-isme/uni-reg-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-reg-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-reg-api/pkg/middleware/requestid"
)

// @title University Registration API
// @version 0.1.0
// @description Course catalog, curriculum plans, and section registration
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	// Redis is optional; without it the availability cache and session
	// revocation degrade to no-ops.
	var availabilityCache, sessionCache *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		availabilityCache = service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, cfg.Availability.CacheEnabled)
		sessionCache = service.NewCacheService(cacheRepo, metricsSvc, cfg.JWT.Expiration, logr, true)
	}

	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	planRepo := repository.NewProgramPlanRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	userRepo := repository.NewUserRepository(db)

	cat := catalog.New(repository.NewCatalogLoader(courseRepo, sectionRepo))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := cat.Refresh(ctx); err != nil {
		cancel()
		logr.Sugar().Fatalw("failed to load catalog", "error", err)
	}
	cancel()

	engine := service.NewRegistrationService(
		courseRepo, sectionRepo, registrationRepo, planRepo,
		cat, availabilityCache, cfg.Availability.CacheTTL, logr,
	)
	studentSvc := service.NewStudentService(studentRepo, registrationRepo, planRepo, cat, logr)
	doctorSvc := service.NewDoctorService(doctorRepo, cat, logr)
	authSvc := service.NewAuthService(userRepo, sessionCache, validator.New(), logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(engine)
	sectionHandler := handler.NewSectionHandler(engine)
	studentHandler := handler.NewStudentHandler(studentSvc, engine)
	registrationHandler := handler.NewRegistrationHandler(studentSvc, engine, metricsSvc)
	doctorHandler := handler.NewDoctorHandler(doctorSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.POST("/auth/logout", authHandler.Logout)

		courses := protected.Group("/courses")
		{
			courses.GET("", courseHandler.List)
			courses.GET("/:code", courseHandler.Get)
			courses.GET("/:code/plans", courseHandler.ListPlans)
			courses.POST("", middleware.RequireCapability(models.CapCatalogWrite), courseHandler.Create)
			courses.DELETE("/:code", middleware.RequireCapability(models.CapCatalogWrite), courseHandler.Delete)
			courses.POST("/:code/plans", middleware.RequireCapability(models.CapCatalogWrite), courseHandler.AddPlan)
			courses.DELETE("/:code/plans", middleware.RequireCapability(models.CapCatalogWrite), courseHandler.RemovePlan)
		}

		sections := protected.Group("/sections")
		{
			sections.GET("/:id", sectionHandler.Get)
			sections.POST("", middleware.RequireCapability(models.CapCatalogWrite), sectionHandler.Create)
			sections.DELETE("/:id", middleware.RequireCapability(models.CapCatalogWrite), sectionHandler.Delete)
		}

		students := protected.Group("/students")
		{
			students.GET("", middleware.RequireCapability(models.CapStudentsRead), studentHandler.List)
			students.POST("", middleware.RequireCapability(models.CapStudentsWrite), studentHandler.Create)
			students.DELETE("/:id", middleware.RequireCapability(models.CapStudentsWrite), studentHandler.Delete)
			students.GET("/:id", middleware.RequireCapabilityOrSelf(models.CapStudentsRead), studentHandler.Get)
			students.GET("/:id/credits", middleware.RequireCapabilityOrSelf(models.CapStudentsRead), studentHandler.Credits)
			students.GET("/:id/available-courses", middleware.RequireCapabilityOrSelf(models.CapStudentsRead), studentHandler.AvailableCourses)
			students.GET("/:id/schedule/export", middleware.RequireCapabilityOrSelf(models.CapStudentsRead), studentHandler.ExportSchedule)

			students.POST("/:id/registrations", middleware.RequireSelf(), registrationHandler.Register)
			students.POST("/:id/registrations/validate", middleware.RequireSelf(), registrationHandler.Validate)
			students.DELETE("/:id/registrations/:sectionId", middleware.RequireSelf(), registrationHandler.Unregister)
		}

		doctors := protected.Group("/doctors")
		doctors.Use(middleware.RequireCapability(models.CapDoctorsWrite))
		{
			doctors.GET("", doctorHandler.List)
			doctors.POST("", doctorHandler.Save)
			doctors.DELETE("/:id", doctorHandler.Delete)
			doctors.GET("/:id/schedule", doctorHandler.Schedule)
			doctors.POST("/:id/assignments", doctorHandler.Assign)
			doctors.DELETE("/:id/assignments/:aid", doctorHandler.Unassign)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
