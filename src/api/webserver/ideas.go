package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idealink-app/idealink/src/api/ideas"
	"github.com/idealink-app/idealink/src/api/notify"
)

type Ideas struct {
	svc      *ideas.Service
	dispatch *notify.Dispatcher
	guard    *notify.ViewGuard
}

func NewIdeas(svc *ideas.Service, dispatch *notify.Dispatcher, guard *notify.ViewGuard) Ideas {
	return Ideas{svc: svc, dispatch: dispatch, guard: guard}
}

type ideaBody struct {
	Title            string   `json:"title"              binding:"required"`
	ProblemStatement string   `json:"problem_statement"  binding:"required"`
	HighLevelConcept string   `json:"high_level_concept" binding:"required"`
	DetailedSolution string   `json:"detailed_solution"`
	TargetAudience   string   `json:"target_audience"`
	Visibility       string   `json:"visibility" binding:"required,oneof=public preview"`
	Category         string   `json:"category"   binding:"required,oneof=business app startup tech social"`
	LookingFor       []string `json:"looking_for" binding:"omitempty,dive,oneof=idea_owner developer designer mentor investor"`
}

func (b ideaBody) draft() ideas.Draft {
	return ideas.Draft{
		Title:            b.Title,
		ProblemStatement: b.ProblemStatement,
		HighLevelConcept: b.HighLevelConcept,
		DetailedSolution: b.DetailedSolution,
		TargetAudience:   b.TargetAudience,
		Visibility:       b.Visibility,
		Category:         b.Category,
		LookingFor:       b.LookingFor,
	}
}

func (h Ideas) Create(c *gin.Context) {
	var req ideaBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	idea, err := h.svc.Create(c, c.GetString("uid"), req.draft())
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, idea)
}

func (h Ideas) Update(c *gin.Context) {
	var req ideaBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	idea, err := h.svc.Update(c, c.Param("id"), c.GetString("uid"), req.draft())
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (h Ideas) Delete(c *gin.Context) {
	if err := h.svc.Delete(c, c.Param("id"), c.GetString("uid")); err != nil {
		replyErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Ideas) List(c *gin.Context) {
	out, err := h.svc.List(c, c.Query("category"), c.Query("looking_for"))
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ideas": out})
}

func (h Ideas) Mine(c *gin.Context) {
	out, err := h.svc.ByOwner(c, c.GetString("uid"))
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ideas": out})
}

// Detail serves the idea through the preview gate. The owner learns about
// the visit once per viewer session.
func (h Ideas) Detail(c *gin.Context) {
	viewer := c.GetString("uid")
	idea, err := h.svc.Detail(c, c.Param("id"), viewer)
	if err != nil {
		replyErr(c, err)
		return
	}

	if viewer != idea.OwnerID &&
		h.guard.FirstView(c, c.GetString("sid"), "idea", idea.ID) {
		h.dispatch.IdeaViewed(c, idea.OwnerID, idea.ID, idea.Title, viewer)
	}
	c.JSON(http.StatusOK, idea)
}

func (h Ideas) ToggleUpvote(c *gin.Context) {
	upvoted, count, err := h.svc.ToggleUpvote(c, c.Param("id"), c.GetString("uid"))
	if err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upvoted": upvoted, "upvotes": count})
}
