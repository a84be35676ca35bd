package testutil

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/stepbuddy/backend/src/utils"
)

func GetEnv(key string) string {
	_ = godotenv.Load(filepath.Join(utils.FindProjectRoot(), ".env"))

	return os.Getenv(key)
}
