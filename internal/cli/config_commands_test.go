package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deskgate/deskgate/internal/config"
)

// executeCommand runs the full command tree with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

// writeTestConfig writes a config whose runtime directory is a temp dir.
func writeTestConfig(t *testing.T, identity string) string {
	t.Helper()

	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.Instance.Identity = identity
	cfg.Instance.RuntimeDir = filepath.Join(dir, "run")
	path := filepath.Join(dir, "deskgate.conf")
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestConfigCommandStructure(t *testing.T) {
	cmd := newConfigCmd()
	want := map[string]bool{"show": false, "init": false, "path": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
		if sub.Short == "" {
			t.Errorf("Subcommand %s has no short description", sub.Name())
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Missing config subcommand %q", name)
		}
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskgate.conf")

	out, err := executeCommand(t, "config", "init", "--config", path, "--identity", "com.example.viewer")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("Expected output to mention %s, got %q", path, out)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}

	// Second init without --force refuses to overwrite
	if _, err := executeCommand(t, "config", "init", "--config", path); err == nil {
		t.Error("Expected error when config already exists")
	}
	if _, err := executeCommand(t, "config", "init", "--config", path, "--force", "--identity", "com.example.viewer"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}

	out, err = executeCommand(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "com.example.viewer") {
		t.Errorf("Expected identity in output, got %q", out)
	}
	if !strings.Contains(out, "connect_timeout_ms:   200") {
		t.Errorf("Expected default connect timeout in output, got %q", out)
	}
}

func TestConfigPathCommand(t *testing.T) {
	out, err := executeCommand(t, "config", "path", "--config", "/etc/deskgate.conf")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if strings.TrimSpace(out) != "/etc/deskgate.conf" {
		t.Errorf("Expected /etc/deskgate.conf, got %q", out)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskgate.conf")
	content := "[protocol]\nenabled = true\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := executeCommand(t, "status", "--config", path); err == nil {
		t.Error("Expected status to reject an invalid config")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("Expected %s in output, got %q", Version, out)
	}
}
