package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("QUIOSCO_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("QUIOSCO_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("QUIOSCO_TEST_MISSING", "fallback"))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("QUIOSCO_TTL", "90s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("QUIOSCO_TTL", time.Minute))

	t.Setenv("QUIOSCO_TTL", "soon")
	assert.Equal(t, time.Minute, GetEnvDuration("QUIOSCO_TTL", time.Minute))

	assert.Equal(t, time.Hour, GetEnvDuration("QUIOSCO_TTL_MISSING", time.Hour))
}

func TestPostgresDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "kiosk")
	dsn := PostgresDSN()
	assert.True(t, strings.HasPrefix(dsn, "host=db port=5432"))
	assert.Contains(t, dsn, "dbname=kiosk")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestLoadS3Settings(t *testing.T) {
	t.Setenv("S3_BUCKET", "quiosco")
	t.Setenv("S3_REGION", "sa-east-1")
	t.Setenv("S3_URL", "")

	s := LoadS3Settings()
	assert.Equal(t, "https://quiosco.s3.sa-east-1.amazonaws.com", s.BaseURL)

	t.Setenv("S3_URL", "https://cdn.quiosco.test/")
	assert.Equal(t, "https://cdn.quiosco.test", LoadS3Settings().BaseURL)
}

func TestNewS3Client(t *testing.T) {
	client, err := NewS3Client(context.Background(), S3Settings{})
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = NewS3Client(context.Background(), S3Settings{
		Bucket:   "quiosco",
		Region:   "us-east-1",
		Key:      "minio",
		Secret:   "minio123",
		Endpoint: "http://localhost:9000",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}
