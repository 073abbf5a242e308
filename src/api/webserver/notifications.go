package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/idealink-app/idealink/src/api/types"
)

type Notifications struct {
	db *gorm.DB
}

func NewNotifications(db *gorm.DB) Notifications { return Notifications{db: db} }

func (h Notifications) List(c *gin.Context) {
	var out []types.Notification
	err := h.db.Where("user_id = ?", c.GetString("uid")).
		Order("created_at desc").Limit(50).Find(&out).Error
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

func (h Notifications) UnreadCount(c *gin.Context) {
	var n int64
	err := h.db.Model(&types.Notification{}).
		Where("user_id = ? AND is_read = ?", c.GetString("uid"), false).
		Count(&n).Error
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (h Notifications) MarkRead(c *gin.Context) {
	res := h.db.Model(&types.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), c.GetString("uid")).
		Update("is_read", true)
	if res.Error != nil {
		replyErr(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Notifications) MarkAllRead(c *gin.Context) {
	err := h.db.Model(&types.Notification{}).
		Where("user_id = ? AND is_read = ?", c.GetString("uid"), false).
		Update("is_read", true).Error
	if err != nil {
		replyErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
