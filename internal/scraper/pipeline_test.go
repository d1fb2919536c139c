package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/masonlabs/storescan/internal/model"
)

// recordingStep is a test double that records whether it ran and can
// fail or cancel on demand.
type recordingStep struct {
	name   string
	err    error
	cancel context.CancelFunc
	ran    bool
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Do(_ context.Context, _ *Run) error {
	s.ran = true
	if s.cancel != nil {
		s.cancel()
	}
	return s.err
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		first := &recordingStep{name: "first"}
		second := &recordingStep{name: "second"}

		p := New()
		p.AddSteps(first, second)

		run := NewRun(model.NewRunState())
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("Execute() returned error: %v", err)
		}
		if !first.ran || !second.ran {
			t.Errorf("steps ran = (%v, %v), want both true", first.ran, second.ran)
		}
		if run.Summary.FinishedAt.IsZero() {
			t.Error("Summary.FinishedAt not set")
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("no URLs")
		failing := &recordingStep{name: "failing", err: wantErr}
		after := &recordingStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		err := p.Execute(context.Background(), NewRun(model.NewRunState()))
		if !errors.Is(err, wantErr) {
			t.Errorf("Execute() error = %v, want %v", err, wantErr)
		}
		if after.ran {
			t.Error("step after the failure ran, want skipped")
		}
	})

	t.Run("continue on error runs every step and returns first error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("export failed")
		failing := &recordingStep{name: "failing", err: wantErr}
		after := &recordingStep{name: "after"}

		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		err := p.Execute(context.Background(), NewRun(model.NewRunState()))
		if !errors.Is(err, wantErr) {
			t.Errorf("Execute() error = %v, want %v", err, wantErr)
		}
		if !after.ran {
			t.Error("step after the failure did not run")
		}
	})

	t.Run("cancellation between steps marks the run interrupted", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancelling := &recordingStep{name: "cancelling", cancel: cancel}
		after := &recordingStep{name: "after"}

		p := New()
		p.AddSteps(cancelling, after)

		run := NewRun(model.NewRunState())
		err := p.Execute(ctx, run)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Execute() error = %v, want context.Canceled", err)
		}
		if after.ran {
			t.Error("step after cancellation ran, want skipped")
		}
		if !run.Summary.Interrupted {
			t.Error("Summary.Interrupted = false, want true")
		}
	})

	t.Run("summary carries record and error counts", func(t *testing.T) {
		t.Parallel()

		state := model.NewRunState()
		if err := state.AddRecord(&model.ProductRecord{ID: "a"}); err != nil {
			t.Fatal(err)
		}
		state.ErrorCount = 2

		run := NewRun(state)
		p := New()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("Execute() returned error: %v", err)
		}
		if run.Summary.Scraped != 1 {
			t.Errorf("Summary.Scraped = %d, want 1", run.Summary.Scraped)
		}
		if run.Summary.Errors != 2 {
			t.Errorf("Summary.Errors = %d, want 2", run.Summary.Errors)
		}
	})
}

func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddSteps(&recordingStep{name: "one"}, &recordingStep{name: "two"})

	got := p.StepNames()
	want := []string{"one", "two"}
	if len(got) != len(want) {
		t.Fatalf("StepNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("StepNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
