package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"studio/internal/utils"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDSN  string
	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string
	// AutoMigrate creates missing tables on startup.
	AutoMigrate bool

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL string

	CORSAllowedOrigins []string
	SettingsRefresh    time.Duration

	GoogleClientID     string
	GoogleClientSecret string

	Timezone string
}

// LoadEnv reads the process environment, after an optional .env file.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[CONFIG] action=load_dotenv msg=%v", err)
	}

	return Env{
		AppAddr: envStr("APP_ADDR", ":8080"),
		GinMode: envStr("GIN_MODE", ""),

		DBDSN:  envStr("DB_DSN", ""),
		DBUser: envStr("DB_USER", "root"),
		DBPass: envStr("DB_PASS", ""),
		DBHost: envStr("DB_HOST", "127.0.0.1"),
		DBPort: envStr("DB_PORT", "3306"),
		DBName: envStr("DB_NAME", "studio"),

		AutoMigrate: envBool("DB_AUTO_MIGRATE", true),

		JWTSecret: envStr("JWT_SECRET", ""),
		JWTTTL:    envDur("JWT_TTL", 24*time.Hour),

		RedisAddr:     envStr("REDIS_ADDR", ""),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		RabbitMQURL: envStr("RABBITMQ_URL", ""),

		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS"),
		SettingsRefresh:    envDur("SETTINGS_REFRESH", 30*time.Second),

		GoogleClientID:     envStr("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envStr("GOOGLE_CLIENT_SECRET", ""),

		Timezone: envStr("STUDIO_TIMEZONE", "Europe/Kyiv"),
	}
}

// DSN returns DB_DSN when set, otherwise builds one from the DB_* parts.
func (e Env) DSN() string {
	if e.DBDSN != "" {
		return e.DBDSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s",
		e.DBUser, e.DBPass, e.DBHost, e.DBPort, e.DBName)
}

// Location resolves the studio timezone, falling back to UTC.
func (e Env) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envStr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envList(k string) []string {
	return utils.SplitList(os.Getenv(k))
}
