package commands

import (
	"context"
	"errors"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-imagesync/internal/report"
)

type fakeCorpusService struct {
	mu       sync.Mutex
	planDirs []string
	syncDirs []string
	syncDry  []bool
	planErr  error
	syncErr  error
}

func (s *fakeCorpusService) PlanCorpus(_ context.Context, dir string) (*report.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planDirs = append(s.planDirs, dir)
	if s.planErr != nil {
		return nil, s.planErr
	}
	return report.NewSummary(), nil
}

func (s *fakeCorpusService) SyncCorpus(_ context.Context, dir string, dryRun bool) (*report.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncDirs = append(s.syncDirs, dir)
	s.syncDry = append(s.syncDry, dryRun)
	if s.syncErr != nil {
		return nil, s.syncErr
	}
	return report.NewSummary(), nil
}

func TestSyncCorpusHandlerExecutes(t *testing.T) {
	service := &fakeCorpusService{}
	handler := NewSyncCorpusHandler(service, nil)

	err := handler.Execute(context.Background(), SyncCorpusCommand{Directory: "docs", DryRun: true})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(service.syncDirs) != 1 || service.syncDirs[0] != "docs" {
		t.Fatalf("service not invoked with directory: %v", service.syncDirs)
	}
	if !service.syncDry[0] {
		t.Fatal("dry-run flag not propagated")
	}
}

func TestSyncCorpusHandlerValidation(t *testing.T) {
	service := &fakeCorpusService{}
	handler := NewSyncCorpusHandler(service, nil)

	err := handler.Execute(context.Background(), SyncCorpusCommand{Directory: "   "})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.syncDirs) != 0 {
		t.Fatal("service must not run on validation failure")
	}
}

func TestSyncCorpusHandlerWrapsServiceError(t *testing.T) {
	service := &fakeCorpusService{syncErr: errors.New("engine blew up")}
	handler := NewSyncCorpusHandler(service, nil)

	err := handler.Execute(context.Background(), SyncCorpusCommand{Directory: "docs"})
	if err == nil {
		t.Fatal("expected execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestPlanCorpusHandlerExecutes(t *testing.T) {
	service := &fakeCorpusService{}
	handler := NewPlanCorpusHandler(service, nil)

	if err := handler.Execute(context.Background(), PlanCorpusCommand{Directory: "docs"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(service.planDirs) != 1 || service.planDirs[0] != "docs" {
		t.Fatalf("service not invoked with directory: %v", service.planDirs)
	}
}

func TestPlanCorpusHandlerCanceledContext(t *testing.T) {
	service := &fakeCorpusService{}
	handler := NewPlanCorpusHandler(service, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, PlanCorpusCommand{Directory: "docs"})
	if err == nil {
		t.Fatal("expected context error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if len(service.planDirs) != 0 {
		t.Fatal("service must not run after cancellation")
	}
}

func TestMessageTypes(t *testing.T) {
	if got := (SyncCorpusCommand{}).Type(); got != "imagesync.sync_corpus" {
		t.Fatalf("unexpected sync message type %q", got)
	}
	if got := (PlanCorpusCommand{}).Type(); got != "imagesync.plan_corpus" {
		t.Fatalf("unexpected plan message type %q", got)
	}
}

func TestMessageValidation(t *testing.T) {
	if err := (SyncCorpusCommand{Directory: "docs"}).Validate(); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	if err := (SyncCorpusCommand{}).Validate(); err == nil {
		t.Fatal("expected validation failure for empty directory")
	}
	if err := (PlanCorpusCommand{Directory: ""}).Validate(); err == nil {
		t.Fatal("expected validation failure for empty directory")
	}
}
