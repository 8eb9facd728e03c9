package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

// StatsHandler serves the back-office dashboard aggregate.
type StatsHandler struct {
	db *gorm.DB
}

func NewStatsHandler(db *gorm.DB) *StatsHandler {
	return &StatsHandler{db: db}
}

func (h *StatsHandler) Dashboard(c *gin.Context) {
	var videoCount, adminCount, pendingCleanup int64
	var totals struct {
		Views int64
		Likes int64
	}

	if err := h.db.Model(&models.Video{}).Count(&videoCount).Error; err != nil {
		slog.Error("stats query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	h.db.Model(&models.Admin{}).Count(&adminCount)
	h.db.Model(&models.CleanupTask{}).
		Where("status = ?", models.CleanupPending).
		Count(&pendingCleanup)
	h.db.Model(&models.Video{}).
		Select("COALESCE(SUM(views),0) as views, COALESCE(SUM(likes),0) as likes").
		Scan(&totals)

	var top []models.Video
	h.db.Order("views DESC").Limit(5).Find(&top)
	topItems := make([]FeedVideo, 0, len(top))
	for _, v := range top {
		topItems = append(topItems, toFeedVideo(v))
	}

	c.JSON(http.StatusOK, gin.H{
		"totalVideos":    videoCount,
		"totalViews":     totals.Views,
		"totalLikes":     totals.Likes,
		"totalAdmins":    adminCount,
		"pendingCleanup": pendingCleanup,
		"topVideos":      topItems,
	})
}
