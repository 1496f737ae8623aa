package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabasePath  string
	UploadDir     string
	AdminUser     string
	AdminPass     string
	ExportEnabled bool
	ExportFile    string
}

// FromEnv loads configuration from the environment, honoring a local
// .env file when present.
func FromEnv() Config {
	_ = godotenv.Load()

	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.DatabasePath = getenv("DATABASE_PATH", "./quizboard.db")
	c.UploadDir = getenv("UPLOAD_DIR", "./uploads")
	c.AdminUser = os.Getenv("ADMIN_USER")
	c.AdminPass = os.Getenv("ADMIN_PASS")
	c.ExportEnabled = getenv("EXPORT_ENABLED", "true") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "./quizboard-results.txt")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
