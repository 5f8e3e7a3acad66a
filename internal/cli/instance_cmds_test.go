package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/deskgate/deskgate/internal/config"
	"github.com/deskgate/deskgate/internal/events"
	"github.com/deskgate/deskgate/internal/ipc"
	"github.com/deskgate/deskgate/internal/singleinstance"
)

// startLeader starts a listening leader for the config at path.
func startLeader(t *testing.T, path string) <-chan events.ArgumentsReceived {
	t.Helper()

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	inst, err := singleinstance.New(singleinstance.Options{
		Identity: cfg.Instance.Identity,
		Dir:      cfg.EffectiveRuntimeDir(),
	})
	if err != nil {
		t.Fatalf("Failed to create leader: %v", err)
	}
	t.Cleanup(func() { inst.Close() })

	received := make(chan events.ArgumentsReceived, 4)
	inst.Subscribe(func(ev events.ArgumentsReceived) { received <- ev })
	if err := inst.ListenForArgumentsFromSuccessiveInstances(); err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	return received
}

func waitForArgs(t *testing.T, received <-chan events.ArgumentsReceived) []string {
	t.Helper()
	select {
	case ev := <-received:
		return ev.Args
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for forwarded arguments")
		return nil
	}
}

func TestSendWithoutLeaderFails(t *testing.T) {
	path := writeTestConfig(t, "cli-send-none")

	_, err := executeCommand(t, "send", "--config", path, "/x")
	if !errors.Is(err, ipc.ErrLeaderUnreachable) {
		t.Errorf("Expected ErrLeaderUnreachable, got %v", err)
	}
}

func TestSendForwardsToLeader(t *testing.T) {
	path := writeTestConfig(t, "cli-send")
	received := startLeader(t, path)

	if _, err := executeCommand(t, "send", "--config", path, "Orders", "myapp://x"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	got := waitForArgs(t, received)
	if strings.Join(got, " ") != "/Orders myapp://x" {
		t.Errorf("Expected [/Orders myapp://x], got %v", got)
	}
}

func TestRunAsFollowerForwardsAndExits(t *testing.T) {
	path := writeTestConfig(t, "cli-run")
	received := startLeader(t, path)

	done := make(chan error, 1)
	go func() {
		_, err := executeCommand(t, "run", "--config", path, "nav:Orders")
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run as follower should return after forwarding")
	}

	if got := waitForArgs(t, received); len(got) != 1 || got[0] != "/nav:Orders" {
		t.Errorf("Expected [/nav:Orders], got %v", got)
	}
}

func TestStatusReportsLeader(t *testing.T) {
	path := writeTestConfig(t, "cli-status")

	out, err := executeCommand(t, "status", "--config", path)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Lock:      free") || !strings.Contains(out, "Listening: false") {
		t.Errorf("Expected a free lock with no listener, got %q", out)
	}

	startLeader(t, path)

	out, err = executeCommand(t, "status", "--config", path)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "held by a running instance") || !strings.Contains(out, "Listening: true") {
		t.Errorf("Expected a held lock with a listener, got %q", out)
	}
	if !strings.Contains(out, fmt.Sprintf("PID %d (running)", os.Getpid())) {
		t.Errorf("Expected leader PID in output, got %q", out)
	}
}

func TestStatusHelpMentionsLockProbe(t *testing.T) {
	out, err := executeCommand(t, "status", "--help")
	if err != nil {
		t.Fatalf("status --help failed: %v", err)
	}
	if !strings.Contains(out, "takes it briefly") {
		t.Errorf("Expected help to describe the lock probe, got:\n%s", out)
	}
}

func TestRunLeaderServesUntilCancelled(t *testing.T) {
	path := writeTestConfig(t, "cli-leader")

	ctx, cancel := context.WithCancel(context.Background())
	rootContext, cancelFunc = ctx, cancel
	defer func() { rootContext, cancelFunc = nil, nil }()

	var out strings.Builder
	done := make(chan error, 1)
	go func() {
		rootCmd := NewRootCmd()
		AddCommands(rootCmd)
		rootCmd.SetOut(&syncWriter{w: &out})
		rootCmd.SetArgs([]string{"run", "--config", path, "/Startup"})
		done <- rootCmd.Execute()
	}()

	// Wait until the leader answers
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	client := ipc.NewClient(ipc.Address(cfg.EffectiveRuntimeDir(), cfg.Instance.Identity))
	deadline := time.Now().Add(5 * time.Second)
	for !client.Probe(context.Background()) {
		if time.Now().After(deadline) {
			t.Fatal("Leader never started listening")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not exit after cancellation")
	}
}
