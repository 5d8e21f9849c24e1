package config

import (
	"fmt"
	"os"

	"github.com/spf13/cast"
)

type Config struct {
	Port           string
	AllowedOrigin  string
	DataPath       string
	StoreName      string
	TerminalID     string
	MaxQRImageKB   int
	ShutdownSecs   int
	RequestLogging bool
}

func Load() Config {
	maxQR := cast.ToInt(getEnv("MAX_QR_IMAGE_KB", "512"))
	if maxQR < 1 {
		maxQR = 512
	}
	shutdown := cast.ToInt(getEnv("SHUTDOWN_TIMEOUT_SECONDS", "8"))
	if shutdown < 1 {
		shutdown = 8
	}

	return Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigin:  getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DataPath:       os.Getenv("DATA_PATH"),
		StoreName:      getEnv("STORE_NAME", "BentaHub"),
		TerminalID:     getEnv("DEFAULT_TERMINAL_ID", "tindahan-1"),
		MaxQRImageKB:   maxQR,
		ShutdownSecs:   shutdown,
		RequestLogging: cast.ToBool(getEnv("REQUEST_LOGGING", "true")),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
