package platform

import (
	"context"
	"testing"
)

func TestNewPostgresPool_InvalidURL(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "not-a-valid-url")
	if err == nil {
		t.Error("NewPostgresPool() with malformed URL = nil error, want error")
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-valid-url")
	if err == nil {
		t.Error("NewRedisClient() with malformed URL = nil error, want error")
	}
}

func TestRunMigrations_InvalidDatabaseURL(t *testing.T) {
	err := RunMigrations("not-a-valid-url", "migrations")
	if err == nil {
		t.Error("RunMigrations() with malformed database URL = nil error, want error")
	}
}
