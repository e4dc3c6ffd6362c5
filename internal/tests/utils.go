package tests

import (
	"embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/govwallet/sidecar/internal/config"
)

// GetDbConfigFromEnv returns nil when no test database has been configured.
func GetDbConfigFromEnv() *config.DatabaseConfig {
	host := os.Getenv("WALLET_SIDECAR_DATABASE_HOST")
	if host == "" {
		return nil
	}
	port, err := strconv.Atoi(os.Getenv("WALLET_SIDECAR_DATABASE_PORT"))
	if err != nil {
		port = 5432
	}
	return &config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     os.Getenv("WALLET_SIDECAR_DATABASE_USER"),
		Password: os.Getenv("WALLET_SIDECAR_DATABASE_PASSWORD"),
		DbName:   "wallet_sidecar_test",
		SSLMode:  "disable",
	}
}

// GenerateTestDbName returns a unique, postgres-safe database name.
func GenerateTestDbName() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("test_%s", strings.ReplaceAll(id.String(), "-", "")), nil
}

//go:embed testdata
var testData embed.FS

func GetStakingRewardsSnapshotFile(name string) ([]byte, error) {
	return testData.ReadFile("testdata/stakingRewards/" + name)
}
