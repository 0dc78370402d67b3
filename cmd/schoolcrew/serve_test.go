package main

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/schoolcrew/internal/config"
)

func TestRunServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.SaveHistory = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := runServe(ctx, cfg, errors.New("keys missing"), discardLogger()); err != nil {
		t.Errorf("runServe() error = %v", err)
	}
}

func TestRunServe_InvalidAddress(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.ListenAddress = "not-an-address"
	cfg.SaveHistory = false

	if err := runServe(context.Background(), cfg, errors.New("keys missing"), discardLogger()); err == nil {
		t.Error("expected listen error")
	}
}
