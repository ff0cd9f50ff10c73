package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/acadhub/committees/config"
	"github.com/acadhub/committees/internal/api/handlers"
	"github.com/acadhub/committees/internal/api/middleware"
	"github.com/acadhub/committees/internal/api/routes"
	"github.com/acadhub/committees/internal/cache"
	"github.com/acadhub/committees/internal/logger"
	"github.com/acadhub/committees/internal/models"
	"github.com/acadhub/committees/internal/repositories/postgres"
	"github.com/acadhub/committees/internal/services"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	db := config.PostgresDB
	if err := db.AutoMigrate(
		&models.Candidate{},
		&models.FacultyMember{},
		&models.ExternalExaminer{},
		&models.ExaminationSession{},
		&models.CommitteeMember{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	uow := postgres.NewUnitOfWork(db)
	sessionRepo := postgres.NewSessionRepo(db)
	memberRepo := postgres.NewMemberRepo(db)
	directory := postgres.NewDirectoryRepo(db)
	c := cache.NewRedisCache(config.RedisClient)

	sessionSvc := services.NewSessionService(uow, sessionRepo, memberRepo, directory, c, l)
	memberSvc := services.NewMemberService(uow, memberRepo, directory, c, l)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Sessions: handlers.NewSessionHandler(sessionSvc),
		Members:  handlers.NewMemberHandler(memberSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
