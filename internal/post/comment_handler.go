package post

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ZaXSeT/webteknikmatematika/internal/database"
	"github.com/ZaXSeT/webteknikmatematika/internal/logs"
	"github.com/ZaXSeT/webteknikmatematika/internal/user"
)

// CreateComment POST /api/posts/:id/comment
// Un parentId optionnel fait du commentaire une réponse ; le parent doit
// exister et appartenir au même post.
func CreateComment(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)

	var input struct {
		Username string `json:"username"`
		Text     string `json:"text"`
		ParentID *int64 `json:"parentId"`
	}
	if bindErr := c.BindJSON(&input); bindErr != nil || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid input"})
		return
	}

	if input.Username == "" || strings.TrimSpace(input.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid input"})
		return
	}

	u, err := user.FindByUsername(input.Username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	var upload Upload
	if err := database.DB.First(&upload, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Post not found"})
		return
	}

	if input.ParentID != nil {
		var parent Comment
		if err := database.DB.First(&parent, "id = ?", *input.ParentID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Parent comment not found"})
			return
		}
		if parent.PostID != postID {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid input"})
			return
		}
	}

	comment := Comment{
		PostID:    postID,
		UserID:    u.ID,
		ParentID:  input.ParentID,
		Text:      input.Text,
		CreatedAt: time.Now(),
		User:      *u,
	}

	if err := database.DB.Omit("User").Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to post comment"})
		logs.LogJSON("ERROR", "Comment insert failed", map[string]interface{}{
			"error":  err.Error(),
			"userID": u.ID,
			"postID": postID,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

// DeleteComment DELETE /api/comments/:id
// Supprime un commentaire et tout son sous-arbre de réponses.
func DeleteComment(c *gin.Context) {
	commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)

	var input struct {
		Username string `json:"username"`
	}
	if bindErr := c.BindJSON(&input); bindErr != nil || input.Username == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid input"})
		return
	}

	var comment Comment
	if err := database.DB.Preload("User").First(&comment, "id = ?", commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Comment not found"})
		return
	}

	if !user.CanModify(input.Username, comment.User.Username) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return deleteCommentTree(tx, []int64{commentID})
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete"})
		logs.LogJSON("ERROR", "Comment delete failed", map[string]interface{}{
			"error":     err.Error(),
			"commentID": commentID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// deleteCommentTree supprime des commentaires niveau par niveau, enfants
// d'abord n'étant pas nécessaire (pas de contrainte FK sur parent_id).
func deleteCommentTree(tx *gorm.DB, ids []int64) error {
	for len(ids) > 0 {
		var childIDs []int64
		if err := tx.Model(&Comment{}).Where("parent_id IN ?", ids).Pluck("id", &childIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&Comment{}).Error; err != nil {
			return err
		}
		ids = childIDs
	}
	return nil
}
