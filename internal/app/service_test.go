package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agro-backoffice/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	boom := errors.New("listen failed")
	failing := &fakeService{name: "http", startErr: boom}
	idle := &fakeService{name: "metrics", block: true}
	runner := NewRunner(failing, idle)

	var closed []string
	runner.AddCloser("redis", func() error {
		closed = append(closed, "redis")
		return nil
	})
	runner.AddCloser("database", func() error {
		closed = append(closed, "database")
		return nil
	})

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	if !failing.stopped || !idle.stopped {
		t.Fatalf("all services must be stopped")
	}
	if len(closed) != 2 || closed[0] != "database" || closed[1] != "redis" {
		t.Fatalf("closers run in reverse order, got %v", closed)
	}
}

func TestRunnerCancelledContextIsCleanExit(t *testing.T) {
	idle := &fakeService{name: "http", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(idle).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if !idle.stopped {
		t.Fatalf("service must be stopped")
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
}

func TestRunnerEarlyCleanExitStopsOthers(t *testing.T) {
	done := &fakeService{name: "oneshot"}
	idle := &fakeService{name: "http", block: true}
	if err := NewRunner(done, idle).Run(context.Background(), time.Second, nil); err != nil {
		t.Fatalf("clean exit should return nil, got %v", err)
	}
	if !idle.stopped {
		t.Fatalf("remaining services must be stopped")
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	if _, err := BuildRunner(&config.Config{}, "worker"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
