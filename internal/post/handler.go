package post

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ZaXSeT/webteknikmatematika/internal/database"
	"github.com/ZaXSeT/webteknikmatematika/internal/like"
	"github.com/ZaXSeT/webteknikmatematika/internal/logs"
	"github.com/ZaXSeT/webteknikmatematika/internal/storage"
	"github.com/ZaXSeT/webteknikmatematika/internal/user"
)

// GetUploads GET /api/uploads
// Renvoie tout le flux, du plus récent au plus ancien, avec l'auteur, les
// likes et les commentaires dénormalisés — le client reconstruit son état
// en mémoire à partir de cette seule réponse.
func GetUploads(c *gin.Context) {
	var uploads []Upload
	err := database.DB.
		Preload("User").
		Preload("Likes.User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Comments.User").
		Order("created_at DESC").
		Find(&uploads).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch uploads"})
		logs.LogJSON("ERROR", "Feed query failed", map[string]interface{}{
			"error": err.Error(),
			"route": c.FullPath(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "uploads": uploads})
}

// CreateUpload POST /api/upload
// Le média est déjà hébergé (upload direct depuis le navigateur) : on ne
// reçoit que les URLs. Accepte le tableau media ou l'ancienne paire url/type.
func CreateUpload(c *gin.Context) {
	var input struct {
		Username    string      `json:"username"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		URL         string      `json:"url"`
		Type        string      `json:"type"`
		Media       []MediaItem `json:"media"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	if input.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing media or username"})
		return
	}

	media, err := NormalizeMedia(input.Media, input.URL, input.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing media or username"})
		return
	}

	u, err := user.FindByUsername(input.Username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	newUpload := Upload{
		CreatedAt:   time.Now(),
		UserID:      u.ID,
		User:        *u,
		Title:       input.Title,
		Description: input.Description,
		Media:       media,
	}

	if err := database.DB.Omit("User").Create(&newUpload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Upload failed"})
		logs.LogJSON("ERROR", "Upload insert failed", map[string]interface{}{
			"error":  err.Error(),
			"userID": u.ID,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "upload": newUpload})
}

// UploadFile POST /api/upload/file
// Variante multipart : le fichier transite par le serveur puis part sur S3.
func UploadFile(c *gin.Context) {
	username := c.PostForm("username")
	title := c.PostForm("title")
	description := c.PostForm("description")

	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing media or username"})
		return
	}

	u, err := user.FindByUsername(username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	file, header, err := c.Request.FormFile("media")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing media or username"})
		return
	}
	defer file.Close()

	// Validation du type de fichier
	ext := strings.ToLower(filepath.Ext(header.Filename))
	validExtensions := map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true,
		".gif": true, ".webp": true, ".heic": true,
		".mp4": true, ".mov": true, ".avi": true, ".webm": true,
	}
	if !validExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid file extension"})
		return
	}

	filename := fmt.Sprintf("upload_%s%s", uuid.New().String(), ext)
	contentType := header.Header.Get("Content-Type")

	url, err := storage.UploadToS3(file, filename, contentType, "uploads")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Upload failed"})
		logs.LogJSON("ERROR", "S3 upload failed", map[string]interface{}{
			"error":  err.Error(),
			"userID": u.ID,
		})
		return
	}

	newUpload := Upload{
		CreatedAt:   time.Now(),
		UserID:      u.ID,
		User:        *u,
		Title:       title,
		Description: description,
		Media:       []MediaItem{{URL: url, Type: guessTypeFromURL(url)}},
	}

	if err := database.DB.Omit("User").Create(&newUpload).Error; err != nil {
		// L'insertion a échoué : on tente de retirer le fichier déjà uploadé
		if key := storage.KeyFromURL(url); key != "" {
			_ = storage.DeleteFromS3(key)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Upload failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "upload": newUpload})
}

// UpdatePost PUT /api/posts/:id
func UpdatePost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)

	var input struct {
		Username    string `json:"username"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if bindErr := c.BindJSON(&input); bindErr != nil || input.Username == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid input"})
		return
	}

	var upload Upload
	if err := database.DB.Preload("User").First(&upload, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Post not found"})
		return
	}

	if !user.CanModify(input.Username, upload.User.Username) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Unauthorized"})
		logs.LogJSON("WARN", "Unauthorized post update", map[string]interface{}{
			"route":    c.FullPath(),
			"username": input.Username,
			"postID":   postID,
		})
		return
	}

	updates := map[string]interface{}{
		"title":       input.Title,
		"description": input.Description,
	}
	if err := database.DB.Model(&upload).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeletePost DELETE /api/posts/:id
// Supprime le post, ses likes, ses commentaires et les médias stockés.
func DeletePost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)

	var input struct {
		Username string `json:"username"`
	}
	if bindErr := c.BindJSON(&input); bindErr != nil || input.Username == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid input"})
		return
	}

	var upload Upload
	if err := database.DB.Preload("User").First(&upload, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Post not found"})
		return
	}

	if !user.CanModify(input.Username, upload.User.Username) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Unauthorized"})
		logs.LogJSON("WARN", "Unauthorized post delete", map[string]interface{}{
			"route":    c.FullPath(),
			"username": input.Username,
			"postID":   postID,
		})
		return
	}

	// Médias d'abord : une entrée orpheline en base est pire qu'un fichier
	// orphelin sur S3.
	for _, item := range upload.Media {
		if key := storage.KeyFromURL(item.URL); key != "" {
			if err := storage.DeleteFromS3(key); err != nil {
				logs.LogJSON("WARN", "S3 delete failed, continuing", map[string]interface{}{
					"error": err.Error(),
					"key":   key,
				})
			}
		}
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&like.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&upload).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete"})
		logs.LogJSON("ERROR", "Post delete failed", map[string]interface{}{
			"error":  err.Error(),
			"postID": postID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
