package main

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ZaXSeT/webteknikmatematika/internal/admin"
	"github.com/ZaXSeT/webteknikmatematika/internal/auth"
	"github.com/ZaXSeT/webteknikmatematika/internal/config"
	"github.com/ZaXSeT/webteknikmatematika/internal/database"
	"github.com/ZaXSeT/webteknikmatematika/internal/like"
	"github.com/ZaXSeT/webteknikmatematika/internal/logs"
	"github.com/ZaXSeT/webteknikmatematika/internal/middleware"
	"github.com/ZaXSeT/webteknikmatematika/internal/post"
	"github.com/ZaXSeT/webteknikmatematika/internal/storage"
	"github.com/ZaXSeT/webteknikmatematika/internal/user"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	if cfg.DBUrl == "" {
		panic("DATABASE_URL manquant")
	}

	database.Connect(cfg.DBUrl)

	if err := database.DB.AutoMigrate(&user.User{}, &post.Upload{}, &post.Comment{}, &like.Like{}); err != nil {
		logs.LogJSON("FATAL", "Migration failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	if err := storage.InitS3(); err != nil {
		logs.LogJSON("FATAL", "S3 init failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	r := gin.Default()

	// Le front Next.js tourne sur une autre origine
	allowedOrigins := []string{"http://localhost:3000"}
	if cfg.AppURL != "" {
		allowedOrigins = append(allowedOrigins, strings.TrimSuffix(cfg.AppURL, "/"))
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))
	r.Use(middleware.RequestLogger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Inscription & Connexion
	api.POST("/register", auth.Register)
	api.POST("/auth", auth.Login)
	api.POST("/forgot-password", auth.ForgotPassword)
	api.POST("/reset-password", auth.ResetPassword)

	// Flux & posts
	api.GET("/uploads", post.GetUploads)
	api.POST("/upload", post.CreateUpload)
	api.POST("/upload/file", post.UploadFile)
	api.PUT("/posts/:id", post.UpdatePost)
	api.DELETE("/posts/:id", post.DeletePost)

	// Réactions
	api.POST("/posts/:id/like", like.ToggleLike)
	api.POST("/posts/:id/comment", post.CreateComment)
	api.DELETE("/comments/:id", post.DeleteComment)

	// Tableau de bord superuser
	api.GET("/admin/stats", admin.GetDashboardStats)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		logs.LogJSON("FATAL", "Server stopped", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
