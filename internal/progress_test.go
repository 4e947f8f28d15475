package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func(ctx context.Context) error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn:      func(ctx context.Context) error { return nil },
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn:      func(ctx context.Context) error { return errors.New("test error") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgress_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := ShowProgress(ctx, "Testing", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ShowProgress() error = %v, want deadline exceeded", err)
	}
}

func TestFetch(t *testing.T) {
	got, err := Fetch(context.Background(), "Loading", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Errorf("Fetch() = %v, %v; want 42, nil", got, err)
	}

	_, err = Fetch(context.Background(), "Loading", func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	})
	if err == nil {
		t.Error("Fetch() should propagate errors")
	}
}

func TestShowProgressWithSteps(t *testing.T) {
	ctx := context.Background()
	ok := func(ctx context.Context) error { return nil }

	tests := []struct {
		name    string
		steps   []ProgressStep
		wantErr bool
	}{
		{
			name:    "successful steps",
			steps:   []ProgressStep{{Message: "Step 1", Fn: ok}, {Message: "Step 2", Fn: ok}},
			wantErr: false,
		},
		{
			name: "step with error",
			steps: []ProgressStep{
				{Message: "Step 1", Fn: ok},
				{Message: "Step 2", Fn: func(ctx context.Context) error { return errors.New("step error") }},
			},
			wantErr: true,
		},
		{
			name:    "empty steps",
			steps:   []ProgressStep{},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgressWithSteps(ctx, tt.steps)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgressWithSteps() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrintHelpers_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	PrintSuccess(&buf, "done")
	PrintWarning(&buf, "careful")
	PrintInfo(&buf, "fyi")
	PrintError(&buf, "failed")

	output := buf.String()
	for _, want := range []string{"done\n", "WARNING: careful\n", "fyi\n", "failed\n"} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q should contain %q", output, want)
		}
	}
}
