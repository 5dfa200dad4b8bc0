package config

import (
	"os"
)

type Config struct {
	DBUrl     string
	JWTSecret string
	AppURL    string
}

func LoadConfig() *Config {
	return &Config{
		DBUrl:     os.Getenv("DATABASE_URL"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		AppURL:    os.Getenv("APP_URL"),
	}
}
