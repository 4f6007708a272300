package app

import (
	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/utils"
)

type Config struct {
	JWTSecretKey string
	Port         string
	Environment  string
	Version      string
	RedisAddr    string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		Port:         utils.GetEnv("PORT", "8080", log),
		Environment:  utils.GetEnv("APP_ENV", "development", log),
		Version:      utils.GetEnv("APP_VERSION", "dev", log),
		RedisAddr:    utils.GetEnv("REDIS_ADDR", "", log),
	}
}
