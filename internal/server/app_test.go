package server

import (
	"bytes"
	"context"
	"testing"

	"github.com/creatorpay/core/internal/logging"
	"github.com/creatorpay/core/internal/server/config"
	"github.com/stretchr/testify/assert"
)

func TestWarnInsecureDefaultsInProduction(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Environment = "production"

	var buf bytes.Buffer
	warnInsecureDefaults(context.Background(), cfg, logging.NewJSONLogger(&buf))

	out := buf.String()
	assert.Contains(t, out, "insecure mock auth")
	assert.Contains(t, out, "default secret key")
}

func TestWarnInsecureDefaultsQuietWhenHardened(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Environment = "production"
	cfg.InsecureMockAuth = false
	cfg.SecretKey = "rotated-secret"

	var buf bytes.Buffer
	warnInsecureDefaults(context.Background(), cfg, logging.NewJSONLogger(&buf))
	assert.Empty(t, buf.String())
}

func TestWarnInsecureDefaultsQuietInDevelopment(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	var buf bytes.Buffer
	warnInsecureDefaults(context.Background(), cfg, logging.NewJSONLogger(&buf))
	assert.Empty(t, buf.String())
}
