// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
)

const (
	smokeImage   = "python:3.12-alpine"
	smokeTimeout = 3 * time.Minute
	smokeTarget  = "/tmp/app.pyz"
)

// containersAvailable reports whether a Docker-compatible provider can be
// reached. Provider detection panics on some hosts.
func containersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// TestBuild_RunsInPython executes a built archive with a real interpreter.
func TestBuild_RunsInPython(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container smoke test in short mode")
	}
	if !containersAvailable() {
		t.Skip("skipping: no container provider available")
	}

	cfg := newProject(t)
	cfg.BundleDependencies = false

	result, err := New(cfg, WithTempDir(t.TempDir())).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), smokeTimeout)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: smokeImage,
			Cmd:   []string{"sleep", "300"},
			Files: []testcontainers.ContainerFile{{
				HostFilePath:      result.Path,
				ContainerFilePath: smokeTarget,
				FileMode:          0o755,
			}},
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	for _, argv := range [][]string{{"python3", smokeTarget}, {smokeTarget}} {
		code, out, err := ctr.Exec(ctx, argv, tcexec.Multiplexed())
		if err != nil {
			t.Fatalf("Exec(%v) error = %v", argv, err)
		}
		output, err := io.ReadAll(out)
		if err != nil {
			t.Fatal(err)
		}
		if code != 0 {
			t.Fatalf("Exec(%v) exit code = %d, output: %s", argv, code, output)
		}
		if got := strings.TrimSpace(string(output)); got != "hello from pyz" {
			t.Errorf("Exec(%v) output = %q, want %q", argv, got, "hello from pyz")
		}
	}
}
