package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/idealink-app/idealink/src/api/sanitize"
	"github.com/idealink-app/idealink/src/api/types"
)

type Moderation struct {
	db *gorm.DB
}

func NewModeration(db *gorm.DB) Moderation { return Moderation{db: db} }

// Block hides a user from the caller. Blocking twice is not an error.
func (h Moderation) Block(c *gin.Context) {
	var req struct {
		BlockedID string `json:"blocked_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	uid := c.GetString("uid")
	if req.BlockedID == uid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"err": "cannot block yourself"})
		return
	}
	block := types.BlockedUser{BlockerID: uid, BlockedID: req.BlockedID}
	if err := h.db.Create(&block).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		replyErr(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h Moderation) Unblock(c *gin.Context) {
	err := h.db.
		Where("blocker_id = ? AND blocked_id = ?", c.GetString("uid"), c.Param("id")).
		Delete(&types.BlockedUser{}).Error
	if err != nil {
		replyErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Moderation) Report(c *gin.Context) {
	var req struct {
		ReportedUserID string `json:"reported_user_id"`
		ReportedIdeaID string `json:"reported_idea_id"`
		Reason         string `json:"reason" binding:"required,oneof=spam harassment inappropriate_content scam other"`
		Description    string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if req.ReportedUserID == "" && req.ReportedIdeaID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"err": "report needs a user or an idea"})
		return
	}
	report := types.Report{
		ReporterID:     c.GetString("uid"),
		ReportedUserID: req.ReportedUserID,
		ReportedIdeaID: req.ReportedIdeaID,
		Reason:         req.Reason,
		Description:    sanitize.Text(req.Description),
	}
	if err := h.db.Create(&report).Error; err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": report.ID})
}
