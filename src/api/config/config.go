package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN       string
	RedisURL       string
	JWTSecret      string
	Port           string
	AllowedOrigins string
	ViewGuardTTL   int // seconds a view notification stays suppressed per session
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	ttl, _ := strconv.Atoi(getenv("VIEW_GUARD_TTL", "86400"))
	return Config{
		MySQLDSN:       getenv("MYSQL_DSN", "idealink:idealink@tcp(127.0.0.1:3306)/idealink?parseTime=true"),
		RedisURL:       getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		Port:           getenv("PORT", "8080"),
		AllowedOrigins: getenv("ALLOWED_ORIGINS", "http://localhost:3000"),
		ViewGuardTTL:   ttl,
	}
}
