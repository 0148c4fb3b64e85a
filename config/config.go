// Package config loads server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Port      int
	DBPath    string
	JWTSecret string
	LogLevel  string
}

var instance *ServerConfig
var once sync.Once

// Get loads the configuration once and returns the shared instance.
// A missing .env file is fine; the environment still applies.
func Get() *ServerConfig {
	once.Do(func() {
		instance = &ServerConfig{}

		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("error loading env file: %s", err.Error())
		}

		instance.Port = int(getEnvAsInt("PORT", 8080))
		instance.DBPath = getEnv("DB_PATH", "./data/attendance.db")
		instance.LogLevel = getEnv("LOG_LEVEL", "info")

		instance.JWTSecret = getEnv("JWT_SECRET", "")
		if instance.JWTSecret == "" {
			logrus.Fatal("could not get JWT secret")
		}
	})

	return instance
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return int64(val)
	}

	return defaultVal
}
