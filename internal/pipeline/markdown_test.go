package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMarkdownRenderer_Render(t *testing.T) {
	t.Parallel()

	r := NewMarkdownRenderer()

	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "empty input",
			input: "",
		},
		{
			name:  "emphasis",
			input: "Pay within **30 days**.",
			want:  []string{"<strong>30 days</strong>"},
		},
		{
			name:  "hard wraps",
			input: "line one\nline two",
			want:  []string{"<br />"},
		},
		{
			name:  "GFM table",
			input: "| a | b |\n|---|---|\n| 1 | 2 |",
			want:  []string{"<table>", "<td>1</td>"},
		},
		{
			name:    "raw HTML dropped",
			input:   "<script>alert(1)</script>",
			notWant: []string{"<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Render(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if tt.input == "" && got != "" {
				t.Errorf("Render(\"\") = %q, want empty", got)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(got), w) {
					t.Errorf("Render() = %q, want it to contain %q", got, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(string(got), nw) {
					t.Errorf("Render() = %q, must not contain %q", got, nw)
				}
			}
		})
	}
}

func TestMarkdownRenderer_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMarkdownRenderer().Render(ctx, "text")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}
