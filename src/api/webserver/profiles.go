package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/idealink-app/idealink/src/api/notify"
	"github.com/idealink-app/idealink/src/api/sanitize"
	"github.com/idealink-app/idealink/src/api/types"
)

type Profiles struct {
	db       *gorm.DB
	dispatch *notify.Dispatcher
	guard    *notify.ViewGuard
}

func NewProfiles(db *gorm.DB, dispatch *notify.Dispatcher, guard *notify.ViewGuard) Profiles {
	return Profiles{db: db, dispatch: dispatch, guard: guard}
}

func (p Profiles) Me(c *gin.Context) {
	var profile types.Profile
	if err := p.db.First(&profile, "id = ?", c.GetString("uid")).Error; err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (p Profiles) UpdateMe(c *gin.Context) {
	var req struct {
		FullName            string   `json:"full_name" binding:"required"`
		Headline            string   `json:"headline"`
		About               string   `json:"about"`
		AvatarURL           string   `json:"avatar_url"`
		Location            string   `json:"location"`
		Skills              []string `json:"skills"`
		LinkedinURL         string   `json:"linkedin_url"`
		GithubURL           string   `json:"github_url"`
		BehanceURL          string   `json:"behance_url"`
		PortfolioURL        string   `json:"portfolio_url"`
		ExperienceYears     int      `json:"experience_years"`
		GuidanceDomains     []string `json:"guidance_domains"`
		InvestmentInterests []string `json:"investment_interests"`
		InvestmentStage     string   `json:"investment_stage" binding:"omitempty,oneof=pre_seed seed series_a series_b growth"`
		TicketSizeMin       uint64   `json:"ticket_size_min"`
		TicketSizeMax       uint64   `json:"ticket_size_max"`
		OpenToPitches       bool     `json:"open_to_pitches"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var profile types.Profile
	if err := p.db.First(&profile, "id = ?", c.GetString("uid")).Error; err != nil {
		replyErr(c, err)
		return
	}

	updates := map[string]interface{}{
		"full_name":            sanitize.Text(req.FullName),
		"headline":             sanitize.Text(req.Headline),
		"about":                sanitize.Text(req.About),
		"avatar_url":           req.AvatarURL,
		"location":             sanitize.Text(req.Location),
		"skills":               types.StringList(req.Skills),
		"linkedin_url":         req.LinkedinURL,
		"github_url":           req.GithubURL,
		"behance_url":          req.BehanceURL,
		"portfolio_url":        req.PortfolioURL,
		"experience_years":     req.ExperienceYears,
		"guidance_domains":     types.StringList(req.GuidanceDomains),
		"investment_interests": types.StringList(req.InvestmentInterests),
		"investment_stage":     req.InvestmentStage,
		"ticket_size_min":      req.TicketSizeMin,
		"ticket_size_max":      req.TicketSizeMax,
		"open_to_pitches":      req.OpenToPitches,
	}
	if err := p.db.Model(&profile).Updates(updates).Error; err != nil {
		replyErr(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Get returns a public profile. The owner is told someone looked, at most
// once per viewer session.
func (p Profiles) Get(c *gin.Context) {
	var profile types.Profile
	if err := p.db.First(&profile, "id = ?", c.Param("id")).Error; err != nil {
		replyErr(c, err)
		return
	}

	viewer := c.GetString("uid")
	if viewer != profile.ID &&
		p.guard.FirstView(c, c.GetString("sid"), "profile", profile.ID) {
		p.dispatch.ProfileViewed(c, profile.ID, viewer)
	}
	c.JSON(http.StatusOK, profile)
}
