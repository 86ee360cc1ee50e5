package checker

import (
	"testing"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
)

func TestToastErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		markup  string
		want    int
		assumed bool
		ms      int64
	}{
		{"assumed duration", `<div class="toast">Saved</div>`, 1, true, 2000},
		{"declared short delay", `<div class="alert" data-delay="3000">Error</div>`, 1, false, 3000},
		{"declared with unit", `<div class="notification" data-duration="1.5s">Hi</div>`, 1, false, 1500},
		{"long enough", `<div class="toast" data-bs-delay="8000">Saved</div>`, 0, false, 0},
		{"autohide disabled", `<div class="toast" data-autohide="false">Saved</div>`, 0, false, 0},
		{"not a message", `<div class="card">Saved</div>`, 0, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := check(t, "toast-errors", tt.markup)
			if len(got) != tt.want {
				t.Fatalf("got %d incidences, want %d", len(got), tt.want)
			}
			if tt.want == 0 {
				return
			}
			inc := got[0]
			if inc.Extra["assumed"] != tt.assumed || inc.Extra["duration_ms"] != tt.ms {
				t.Errorf("extra = %v, want assumed=%v duration_ms=%d", inc.Extra, tt.assumed, tt.ms)
			}
			if inc.Category != model.CategoryTiming || inc.Criterion() != "2.2.1" {
				t.Errorf("category/wcag = %v/%s", inc.Category, inc.Criterion())
			}
		})
	}

	t.Run("threshold is configurable", func(t *testing.T) {
		t.Parallel()

		got := check(t, "toast-errors", `<div class="toast">Saved</div>`, func(o *Options) {
			o.MinVisibleDuration = time.Second
		})
		if len(got) != 0 {
			t.Errorf("got %d incidences, want none below a 1s minimum", len(got))
		}
	})
}

func TestOverlayTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   int
	}{
		{"overlay with trigger", `<button>Open</button><div class="modal">Terms</div><dialog class="popup">x</dialog>`, 2},
		{"overlay without trigger", `<div class="modal">Terms</div>`, 0},
		{"onclick trigger", `<a onclick="show()">Open</a><div class="overlay" data-timeout="10000">x</div>`, 0},
		{"span overlay ignored", `<button>Open</button><span class="popup">x</span>`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := check(t, "overlay-timeout", tt.markup)
			if len(got) != tt.want {
				t.Fatalf("got %d incidences, want %d", len(got), tt.want)
			}
			for _, inc := range got {
				if inc.Extra["duration_ms"] != int64(3000) {
					t.Errorf("duration_ms = %v, want the assumed 3000", inc.Extra["duration_ms"])
				}
			}
		})
	}
}

func TestSessionTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{"no session", `<p>Hello</p>`, nil},
		{"login form without warning", `<form><input type="password"></form>`, []string{"No session timeout warning"}},
		{"logout link with silent warning", `<a href="/logout">Log out</a><div class="session-warning">Expiring</div>`,
			[]string{"Session timeout warning is not screen reader friendly"}},
		{"announced warning", `<a href="/account/sign-out">Bye</a><div class="timeout-alert" aria-live="assertive">Expiring</div>`, nil},
		{"alertdialog warning", `<button>Sign out</button><div class="modal-warning" role="alertdialog">Expiring</div>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := check(t, "session-timeout", tt.markup)
			if len(got) != len(tt.want) {
				t.Fatalf("titles = %v, want %v", titles(got), tt.want)
			}
			for i, inc := range got {
				if inc.Title != tt.want[i] {
					t.Errorf("title = %q, want %q", inc.Title, tt.want[i])
				}
			}
		})
	}

	t.Run("missing warning is page-level", func(t *testing.T) {
		t.Parallel()

		got := check(t, "session-timeout", `<input type="password">`)
		if len(got) != 1 || got[0].Element != nil || got[0].Severity != model.SeverityHigh {
			t.Errorf("got %+v", got)
		}
	})
}
