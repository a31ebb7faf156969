//go:build integration

package converter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/logistics-converter/pkg/client"
	"github.com/Sternrassler/logistics-converter/pkg/output"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// TestFullPipelineWithCache runs the converter twice against the same source
// with the page cache enabled: the rerun revalidates every page and writes
// byte-identical output.
func TestFullPipelineWithCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := setupMock(t)
	dir := t.TempDir()

	run := func(path string) Result {
		cfg := client.DefaultConfig(token)
		cfg.Redis = redisClient
		apiClient, err := client.New(cfg)
		if err != nil {
			t.Fatalf("client.New: %v", err)
		}
		defer apiClient.Close()

		conv, err := New(apiClient, output.NewCSVSink(path), Config{StartURL: mock.StartURL()})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		res, err := conv.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res
	}

	first := run(filepath.Join(dir, "first.csv"))
	second := run(filepath.Join(dir, "second.csv"))

	if first.Rows != 5 || second.Rows != 5 {
		t.Errorf("rows = %d / %d, want 5 / 5", first.Rows, second.Rows)
	}
	if got := mock.GetConditionalCount(); got != 3 {
		t.Errorf("conditional requests = %d, want 3 (one per page on rerun)", got)
	}

	a, _ := os.ReadFile(filepath.Join(dir, "first.csv"))
	b, _ := os.ReadFile(filepath.Join(dir, "second.csv"))
	if !bytes.Equal(a, b) {
		t.Errorf("cached rerun produced different output:\n%s\n---\n%s", a, b)
	}
}
