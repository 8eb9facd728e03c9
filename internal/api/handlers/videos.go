package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/resolver"
)

// VideoHandler serves the public feed: listing, detail, view counting and
// the per-device like toggle.
type VideoHandler struct {
	db           *gorm.DB
	defaultLimit int
	maxLimit     int
}

func NewVideoHandler(db *gorm.DB, defaultLimit, maxLimit int) *VideoHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit <= 0 {
		maxLimit = 50
	}
	return &VideoHandler{db: db, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// FeedVideo is a Video plus its resolved playback URLs. Resolution happens
// at read time so stored records stay backend-agnostic.
type FeedVideo struct {
	models.Video
	VideoURL     string   `json:"videoUrl"`
	ThumbURL     string   `json:"thumbnailUrl"`
	FallbackURLs []string `json:"fallbackUrls,omitempty"`
}

func toFeedVideo(v models.Video) FeedVideo {
	return FeedVideo{
		Video:        v,
		VideoURL:     resolver.ResolveVideoURL(&v),
		ThumbURL:     resolver.ResolveThumbnailURL(&v),
		FallbackURLs: resolver.ResolveFallbackURLs(&v),
	}
}

// Whitelisted sort columns. Anything else falls back to created_at so the
// query parameter can never reach the ORDER BY clause raw.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"views":     "views",
	"likes":     "likes",
	"title":     "title",
}

func (h *VideoHandler) ListVideos(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = h.defaultLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	column, ok := sortColumns[c.DefaultQuery("sortBy", "createdAt")]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if c.DefaultQuery("sortOrder", "desc") == "asc" {
		order = "ASC"
	}

	var total int64
	if err := h.db.Model(&models.Video{}).Count(&total).Error; err != nil {
		slog.Error("video count failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var videos []models.Video
	err := h.db.Order(column + " " + order).
		Limit(limit).
		Offset(offset).
		Find(&videos).Error
	if err != nil {
		slog.Error("video list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]FeedVideo, 0, len(videos))
	for _, v := range videos {
		items = append(items, toFeedVideo(v))
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": items,
		"pagination": gin.H{
			"total":   total,
			"limit":   limit,
			"offset":  offset,
			"hasMore": int64(offset+len(videos)) < total,
		},
	})
}

func (h *VideoHandler) GetVideo(c *gin.Context) {
	var video models.Video
	if err := h.db.First(&video, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"video": toFeedVideo(video)})
}

// RecordView bumps the denormalized view counter. Fire-and-forget from the
// client's perspective; there is no per-device dedup for views.
func (h *VideoHandler) RecordView(c *gin.Context) {
	res := h.db.Model(&models.Video{}).
		Where("id = ?", c.Param("id")).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		slog.Error("view increment failed", "video_id", c.Param("id"), "error", res.Error)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	viewsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleLike flips the like state for a device. The unique (video, device)
// index makes the toggle idempotent under concurrent double-taps.
func (h *VideoHandler) ToggleLike(c *gin.Context) {
	var input struct {
		DeviceID string `json:"deviceId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId is required"})
		return
	}
	videoID := c.Param("id")

	var liked bool
	var likes int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var video models.Video
		if err := tx.First(&video, "id = ?", videoID).Error; err != nil {
			return err
		}

		var existing models.VideoLike
		findErr := tx.Where("video_id = ? AND device_id = ?", videoID, input.DeviceID).
			First(&existing).Error

		switch findErr {
		case nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := tx.Model(&video).
				UpdateColumn("likes", gorm.Expr("likes - 1")).Error; err != nil {
				return err
			}
			liked = false
			likes = video.Likes - 1
		case gorm.ErrRecordNotFound:
			like := models.VideoLike{VideoID: videoID, DeviceID: input.DeviceID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			if err := tx.Model(&video).
				UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
				return err
			}
			liked = true
			likes = video.Likes + 1
		default:
			return findErr
		}
		return nil
	})

	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	if err != nil {
		slog.Error("like toggle failed", "video_id", videoID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if liked {
		likesTotal.WithLabelValues("like").Inc()
	} else {
		likesTotal.WithLabelValues("unlike").Inc()
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": likes})
}
