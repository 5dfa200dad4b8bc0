package like

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ZaXSeT/webteknikmatematika/internal/database"
	"github.com/ZaXSeT/webteknikmatematika/internal/logs"
	"github.com/ZaXSeT/webteknikmatematika/internal/user"
)

// ToggleLike POST /api/posts/:id/like
// Un like existant est retiré, sinon il est créé. La réponse indique l'état
// final côté serveur, c'est elle qui fait foi pour le client.
func ToggleLike(c *gin.Context) {
	route := c.FullPath()
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)

	var input struct {
		Username string `json:"username"`
	}
	if bindErr := c.BindJSON(&input); bindErr != nil || input.Username == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid input"})
		return
	}

	u, err := user.FindByUsername(input.Username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	// Vérifier que le post existe sans importer le package post
	var postCount int64
	if err := database.DB.Table("uploads").Where("id = ?", postID).Count(&postCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to toggle like"})
		logs.LogJSON("ERROR", "Database error", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"postID": postID,
		})
		return
	}
	if postCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Post not found"})
		return
	}

	var existingLike Like
	err = database.DB.Where("user_id = ? AND post_id = ?", u.ID, postID).First(&existingLike).Error

	if err == nil {
		// Le like existe, on le supprime (unlike)
		if err := database.DB.Delete(&existingLike).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to toggle like"})
			logs.LogJSON("ERROR", "Error when unliking", map[string]interface{}{
				"error":  err.Error(),
				"route":  route,
				"userID": u.ID,
				"postID": postID,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "liked": false})
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Le like n'existe pas, on le crée
		newLike := Like{
			CreatedAt: time.Now(),
			UserID:    u.ID,
			PostID:    postID,
		}
		if err := database.DB.Create(&newLike).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to toggle like"})
			logs.LogJSON("ERROR", "Error when liking", map[string]interface{}{
				"error":  err.Error(),
				"route":  route,
				"userID": u.ID,
				"postID": postID,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "liked": true})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to toggle like"})
	logs.LogJSON("ERROR", "Database error", map[string]interface{}{
		"error":  err.Error(),
		"route":  route,
		"userID": u.ID,
		"postID": postID,
	})
}
