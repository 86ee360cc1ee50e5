package main

import (
	"strings"
	"testing"

	"github.com/nao1215/a11yscan/internal/checker"
)

func TestCheckersCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists every checker", func(t *testing.T) {
		t.Parallel()

		out, err := executeCmd(t, "checkers")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"aria-label-in-div", "focus-order", "images-of-text", "32 checker(s)"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("filters by family", func(t *testing.T) {
		t.Parallel()

		out := checkerTable(checker.NewRegistry(), checker.FamilyFocus)
		if !strings.Contains(out, "focus-order") {
			t.Errorf("focus-order missing: %s", out)
		}
		if strings.Contains(out, "duplicate-ids") {
			t.Errorf("structure checker listed under focus: %s", out)
		}
	})

	t.Run("unknown family lists nothing", func(t *testing.T) {
		t.Parallel()

		out := checkerTable(checker.NewRegistry(), checker.Family("video"))
		if !strings.Contains(out, "0 checker(s)") {
			t.Errorf("unexpected output: %s", out)
		}
	})
}
