package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/storage"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/utils"
)

// AdminVideoHandler covers the back-office video surface: multipart upload
// to the configured storage backend, partial metadata edits, and deletes
// that enqueue remote-asset cleanup instead of calling the CDN inline.
type AdminVideoHandler struct {
	db      *gorm.DB
	storage *storage.Client
}

func NewAdminVideoHandler(db *gorm.DB, st *storage.Client) *AdminVideoHandler {
	return &AdminVideoHandler{db: db, storage: st}
}

var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
}

func (h *AdminVideoHandler) UploadVideo(c *gin.Context) {
	title := utils.CleanTitle(c.PostForm("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	description := c.PostForm("description")

	fileHeader, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video file is required"})
		return
	}

	ext := strings.ToLower(path.Ext(fileHeader.Filename))
	contentType, ok := videoContentTypes[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported video format: " + ext})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	key := utils.SanitizeKey(title) + ext
	timer := prometheus.NewTimer(uploadDuration)
	result, err := h.storage.UploadVideo(key, file, contentType)
	timer.ObserveDuration()
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		slog.Error("video upload failed", "key", key, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Storage upload failed"})
		return
	}

	video := models.Video{
		Title:       title,
		Description: description,
		AdminID:     c.GetString("admin_id"),
	}
	switch h.storage.ProviderName() {
	case "bunny":
		video.BunnyVideoID = result.RemoteID
		video.BunnyStreamURL = result.URL
		video.BunnyThumbnailURL = result.ThumbnailURL
	case "cloudinary":
		video.CloudinaryPublicID = result.RemoteID
		video.CloudinaryURL = result.URL
	default:
		video.FilePath = result.URL
	}

	// An optional manual thumbnail beats whatever the CDN generates.
	if thumbHeader, err := c.FormFile("thumbnail"); err == nil {
		thumbURL, err := h.uploadThumbnail(key, thumbHeader)
		if err != nil {
			slog.Warn("thumbnail upload failed, keeping CDN default", "error", err)
		} else {
			video.ThumbnailURL = thumbURL
		}
	}

	if err := h.db.Create(&video).Error; err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		// The video row failed but the remote asset exists; queue it for
		// removal so it does not leak.
		h.enqueueCleanup(h.db, h.storage.ProviderName(), result.RemoteID)
		c.JSON(http.StatusConflict, gin.H{"error": "A video with this title already exists"})
		return
	}

	uploadsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"video":   toFeedVideo(video),
		"thumbnailInfo": gin.H{
			"source": thumbnailSource(&video),
			"url":    video.ThumbnailURL,
		},
	})
}

func (h *AdminVideoHandler) uploadThumbnail(videoKey string, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".webp" {
		return "", errors.New("unsupported thumbnail format: " + ext)
	}
	key := "thumbnails/" + videoKey + ext
	return h.storage.UploadAsset(key, file, "image/"+strings.TrimPrefix(ext, "."), "public, max-age=86400")
}

func thumbnailSource(v *models.Video) string {
	switch {
	case v.ThumbnailURL != "":
		return "manual"
	case v.BunnyThumbnailURL != "":
		return "bunny"
	case v.CloudinaryURL != "":
		return "cloudinary"
	default:
		return "placeholder"
	}
}

// UpdateVideo applies a partial metadata edit. Storage pointers are not
// editable here; re-upload replaces them.
func (h *AdminVideoHandler) UpdateVideo(c *gin.Context) {
	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Thumbnail   *string `json:"thumbnailUrl"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var video models.Video
	if err := h.db.First(&video, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := utils.CleanTitle(*input.Title)
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
			return
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Thumbnail != nil {
		updates["thumbnail_url"] = *input.Thumbnail
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"video": toFeedVideo(video)})
		return
	}

	if err := h.db.Model(&video).Updates(updates).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A video with this title already exists"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"video": toFeedVideo(video)})
}

// DeleteVideo removes the record and enqueues cleanup tasks for every
// storage backend the record points at, all in one transaction. The CDN
// call itself happens later in the cleanup worker.
func (h *AdminVideoHandler) DeleteVideo(c *gin.Context) {
	var video models.Video
	if err := h.db.First(&video, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", video.ID).Delete(&models.VideoLike{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&video).Error; err != nil {
			return err
		}
		if video.BunnyVideoID != "" {
			if err := h.enqueueCleanup(tx, "bunny", video.BunnyVideoID); err != nil {
				return err
			}
		}
		if video.CloudinaryPublicID != "" {
			if err := h.enqueueCleanup(tx, "cloudinary", video.CloudinaryPublicID); err != nil {
				return err
			}
		}
		if video.FilePath != "" {
			// FilePath is the public /uploads URL; the provider wants the key
			key := strings.TrimPrefix(video.FilePath, "/uploads/")
			if err := h.enqueueCleanup(tx, "local", key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("video delete failed", "video_id", video.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminVideoHandler) enqueueCleanup(tx *gorm.DB, provider, remoteID string) error {
	task := models.CleanupTask{
		Provider:      provider,
		RemoteID:      remoteID,
		Status:        models.CleanupPending,
		NextAttemptAt: time.Now(),
	}
	if err := tx.Create(&task).Error; err != nil {
		slog.Error("cleanup enqueue failed", "provider", provider, "remote_id", remoteID, "error", err)
		return err
	}
	return nil
}
