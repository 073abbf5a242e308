package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/idealink-app/idealink/src/api/data"
	"github.com/idealink-app/idealink/src/api/messaging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer; the upgrade itself accepts any.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WS struct {
	rdb *redis.Client
	svc *messaging.Service
}

func NewWS(rdb *redis.Client, svc *messaging.Service) WS {
	return WS{rdb: rdb, svc: svc}
}

// Conversation streams new-message events for one conversation to a
// participant. Events are forwarded in arrival order; consumers dedupe by
// message id.
func (h WS) Conversation(c *gin.Context) {
	conv, err := h.svc.Get(c, c.Param("id"), c.GetString("uid"))
	if err != nil {
		replyErr(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.rdb.Subscribe(c.Request.Context(), data.ConvChannel(conv.ID))
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		// Drain client frames so we notice the peer going away.
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("ws conv %s: %v", conv.ID, err)
				return
			}
		}
	}
}
