package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/idealink-app/idealink/src/api/config"
	"github.com/idealink-app/idealink/src/api/data"
	"github.com/idealink-app/idealink/src/api/types"
	"github.com/idealink-app/idealink/src/api/webserver"
)

var allModels = []interface{}{
	&types.User{}, &types.Profile{},
	&types.Idea{}, &types.IdeaUpvote{},
	&types.CollaborationRequest{},
	&types.Conversation{}, &types.Message{},
	&types.Notification{},
	&types.BlockedUser{}, &types.Report{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	migrate(db)

	rdb := data.MustRedis(cfg.RedisURL)

	router, cleanup := webserver.New(cfg, db, rdb)
	defer cleanup()
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("IdeaLink API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
