package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/idealink-app/idealink/src/api/messaging"
	"github.com/idealink-app/idealink/src/api/types"
)

type Conversations struct {
	svc *messaging.Service
	db  *gorm.DB
}

func NewConversations(svc *messaging.Service, db *gorm.DB) Conversations {
	return Conversations{svc: svc, db: db}
}

// Open finds or creates the conversation with another user.
func (h Conversations) Open(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participant_id" binding:"required"`
		IdeaID        string `json:"idea_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	conv, err := h.svc.GetOrCreate(c, c.GetString("uid"), req.ParticipantID, req.IdeaID)
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h Conversations) List(c *gin.Context) {
	out, err := h.svc.List(c, c.GetString("uid"))
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

// Messages returns the history and marks it read for the caller.
func (h Conversations) Messages(c *gin.Context) {
	out, err := h.svc.Messages(c, c.Param("id"), c.GetString("uid"))
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func (h Conversations) Send(c *gin.Context) {
	var req struct {
		Content  string `json:"content"`
		FileURL  string `json:"file_url"`
		FileName string `json:"file_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	msg, err := h.svc.Send(c, c.Param("id"), c.GetString("uid"), req.Content, req.FileURL, req.FileName)
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Approve lifts the intro gate manually. Only a participant may call it,
// and when the conversation is tied to an idea only that idea's owner can.
func (h Conversations) Approve(c *gin.Context) {
	conv, err := h.svc.Get(c, c.Param("id"), c.GetString("uid"))
	if err != nil {
		replyErr(c, err)
		return
	}
	if conv.IdeaID != "" {
		var idea types.Idea
		if err := h.db.First(&idea, "id = ?", conv.IdeaID).Error; err != nil {
			replyErr(c, err)
			return
		}
		if idea.OwnerID != c.GetString("uid") {
			c.JSON(http.StatusForbidden, gin.H{"err": "only the idea owner can approve this conversation"})
			return
		}
	}
	if err := h.svc.Approve(c, conv.ID); err != nil {
		replyErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
