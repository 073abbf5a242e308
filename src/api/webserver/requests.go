package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idealink-app/idealink/src/api/collab"
)

type Requests struct {
	svc *collab.Service
}

func NewRequests(svc *collab.Service) Requests { return Requests{svc: svc} }

func (h Requests) Create(c *gin.Context) {
	var req struct {
		IdeaID  string `json:"idea_id" binding:"required"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	out, err := h.svc.Create(c, req.IdeaID, c.GetString("uid"), req.Message)
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Requests) Decide(c *gin.Context) {
	var req struct {
		Decision string  `json:"decision" binding:"required,oneof=approved rejected"`
		Version  *uint32 `json:"version"  binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	out, err := h.svc.Decide(c, c.Param("id"), c.GetString("uid"), req.Decision, *req.Version)
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Requests) Incoming(c *gin.Context) {
	out, err := h.svc.Incoming(c, c.GetString("uid"))
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": out})
}

func (h Requests) Sent(c *gin.Context) {
	out, err := h.svc.Sent(c, c.GetString("uid"))
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": out})
}
