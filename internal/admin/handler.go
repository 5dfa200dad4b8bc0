package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZaXSeT/webteknikmatematika/internal/database"
	"github.com/ZaXSeT/webteknikmatematika/internal/logs"
	"github.com/ZaXSeT/webteknikmatematika/internal/user"
)

// GetDashboardStats GET /api/admin/stats?username=
// Réservé au superuser : compteurs globaux pour le tableau de bord.
func GetDashboardStats(c *gin.Context) {
	route := c.FullPath()
	username := c.Query("username")

	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Must be logged in"})
		return
	}
	if !user.IsSuperuser(username) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Unauthorized"})
		logs.LogJSON("WARN", "Non-superuser blocked from admin route", map[string]interface{}{
			"route":    route,
			"username": username,
		})
		return
	}

	// Statistiques générales
	var totalUsers, totalUploads, totalLikes, totalComments int64
	var galleries, replies int64

	database.DB.Table("users").Count(&totalUsers)
	database.DB.Table("uploads").Count(&totalUploads)
	database.DB.Table("likes").Count(&totalLikes)
	database.DB.Table("comments").Count(&totalComments)

	// Posts multi-médias (galeries)
	database.DB.Table("uploads").Where("jsonb_array_length(media) > 1").Count(&galleries)

	// Commentaires qui sont des réponses
	database.DB.Table("comments").Where("parent_id IS NOT NULL").Count(&replies)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"total_users":    totalUsers,
			"total_uploads":  totalUploads,
			"total_likes":    totalLikes,
			"total_comments": totalComments,
			"galleries":      galleries,
			"replies":        replies,
		},
	})
}
