package webserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/idealink-app/idealink/src/api/collab"
	"github.com/idealink-app/idealink/src/api/config"
	"github.com/idealink-app/idealink/src/api/ideas"
	"github.com/idealink-app/idealink/src/api/messaging"
	"github.com/idealink-app/idealink/src/api/notify"
)

// New builds the engine. The returned cleanup stops the rate limiters'
// background goroutines.
func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, func()) {
	r := gin.Default()
	cleanup := attachRoutes(r, cfg, db, rdb)
	return r, cleanup
}

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) func() {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	dispatch := notify.NewDispatcher(db)
	guard := notify.NewViewGuard(rdb, time.Duration(cfg.ViewGuardTTL)*time.Second)
	msgSvc := messaging.NewService(db, rdb, dispatch)
	collabSvc := collab.NewService(db, dispatch, msgSvc)
	ideaSvc := ideas.NewService(db, collabSvc)

	secret := []byte(cfg.JWTSecret)
	authH := NewAuth(db, secret)
	profileH := NewProfiles(db, dispatch, guard)
	ideaH := NewIdeas(ideaSvc, dispatch, guard)
	requestH := NewRequests(collabSvc)
	convH := NewConversations(msgSvc, db)
	notifH := NewNotifications(db)
	modH := NewModeration(db)
	wsH := NewWS(rdb, msgSvc)

	authLimiter := NewRateLimiter(10, time.Minute)
	sendLimiter := NewRateLimiter(30, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/signup", RateLimitMiddleware(authLimiter), authH.Signup)
		v1.POST("/auth/login", RateLimitMiddleware(authLimiter), authH.Login)

		secured := v1.Group("")
		secured.Use(JWTMiddleware(secret))

		secured.GET("/profiles/me", profileH.Me)
		secured.PUT("/profiles/me", profileH.UpdateMe)
		secured.GET("/profiles/:id", profileH.Get)

		secured.GET("/ideas", ideaH.List)
		secured.GET("/ideas/mine", ideaH.Mine)
		secured.POST("/ideas", ideaH.Create)
		secured.GET("/ideas/:id", ideaH.Detail)
		secured.PUT("/ideas/:id", ideaH.Update)
		secured.DELETE("/ideas/:id", ideaH.Delete)
		secured.POST("/ideas/:id/upvote", ideaH.ToggleUpvote)

		secured.POST("/requests", requestH.Create)
		secured.PUT("/requests/:id", requestH.Decide)
		secured.GET("/requests/incoming", requestH.Incoming)
		secured.GET("/requests/sent", requestH.Sent)

		secured.POST("/conversations", convH.Open)
		secured.GET("/conversations", convH.List)
		secured.GET("/conversations/:id/messages", convH.Messages)
		secured.POST("/conversations/:id/messages", RateLimitMiddleware(sendLimiter), convH.Send)
		secured.PUT("/conversations/:id/approve", convH.Approve)

		secured.GET("/notifications", notifH.List)
		secured.GET("/notifications/unread-count", notifH.UnreadCount)
		secured.PUT("/notifications/:id/read", notifH.MarkRead)
		secured.PUT("/notifications/read-all", notifH.MarkAllRead)

		secured.POST("/blocks", modH.Block)
		secured.DELETE("/blocks/:id", modH.Unblock)
		secured.POST("/reports", modH.Report)

		secured.GET("/ws/conversations/:id", wsH.Conversation)
	}

	return func() {
		authLimiter.Stop()
		sendLimiter.Stop()
	}
}

// replyErr maps domain errors to HTTP responses. Unique-constraint and gate
// violations get specific messages; everything else is a generic failure.
func replyErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "not found"})
	case errors.Is(err, collab.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"err": "you have already requested collaboration"})
	case errors.Is(err, collab.ErrSelfRequest):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"err": "cannot request collaboration on your own idea"})
	case errors.Is(err, collab.ErrNotOwner), errors.Is(err, ideas.ErrNotIdeaOwner),
		errors.Is(err, messaging.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"err": err.Error()})
	case errors.Is(err, collab.ErrAlreadyDecided), errors.Is(err, collab.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"err": err.Error()})
	case errors.Is(err, collab.ErrBadDecision), errors.Is(err, messaging.ErrSelfChat),
		errors.Is(err, messaging.ErrEmptyMessage):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"err": err.Error()})
	case errors.Is(err, messaging.ErrMessageLimit):
		c.JSON(http.StatusConflict, gin.H{"err": "message limit reached, wait for the idea owner to approve your request"})
	case errors.Is(err, messaging.ErrBlocked):
		c.JSON(http.StatusForbidden, gin.H{"err": err.Error()})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"err": "already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
