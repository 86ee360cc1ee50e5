package checker

import (
	"strings"
	"testing"
)

func TestSelectedState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		checker string
		markup  string
		want    int
	}{
		{"no toggle buttons", "button-aria-pressed", `<button>Save</button>`, 0},
		{"none pressed", "button-aria-pressed", `<div role="button">Bold</div><div role="button">Italic</div>`, 1},
		{"one pressed", "button-aria-pressed", `<div role="button" aria-pressed="true">Bold</div><div role="button">Italic</div>`, 0},
		{"no tab selected", "tab-aria-selected", `<div role="tablist"><a role="tab">One</a><a role="tab" class="active">Two</a></div>`, 1},
		{"tab selected", "tab-aria-selected", `<a role="tab" aria-selected="true">One</a><a role="tab" aria-selected="false">Two</a>`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := check(t, tt.checker, tt.markup)
			if len(got) != tt.want {
				t.Fatalf("got %d incidences, want %d", len(got), tt.want)
			}
			for _, inc := range got {
				if inc.Element != nil || len(inc.AffectedElements) != 0 {
					t.Errorf("%s should be page-level, got %+v", tt.checker, inc.Element)
				}
				if inc.Extra["candidates"] != 2 {
					t.Errorf("candidates = %v, want 2", inc.Extra["candidates"])
				}
			}
		})
	}
}

func TestExpandedState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		checker string
		markup  string
		want    int
		detail  string
	}{
		{"accordion without state", "accordion-aria-expanded", `<button class="accordion-button">Shipping</button>`, 1, "aria-expanded is missing"},
		{"accordion with invalid state", "accordion-aria-expanded", `<button class="accordion-button" aria-expanded="yes">Shipping</button>`, 1, `aria-expanded="yes"`},
		{"accordion with state", "accordion-aria-expanded", `<button class="accordion-button" aria-expanded="false">Shipping</button>`, 0, ""},
		{"disclosure without state", "button-aria-expanded", `<button aria-controls="menu">Menu</button>`, 1, "aria-expanded is missing"},
		{"bootstrap toggler", "button-aria-expanded", `<button class="navbar-toggler" data-bs-toggle="collapse">=</button>`, 1, ""},
		{"plain button", "button-aria-expanded", `<button>Save</button>`, 0, ""},
		{"accordion left to its checker", "button-aria-expanded", `<button class="accordion-button" aria-controls="p1">A</button>`, 0, ""},
		{"combobox without state", "combobox-aria-expanded", `<input role="combobox" aria-controls="list">`, 1, ""},
		{"combobox with state", "combobox-aria-expanded", `<input role="combobox" aria-expanded="false">`, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := check(t, tt.checker, tt.markup)
			if len(got) != tt.want {
				t.Fatalf("got %d incidences, want %d", len(got), tt.want)
			}
			if tt.detail != "" && !strings.Contains(got[0].Description, tt.detail) {
				t.Errorf("Description = %q, want it to mention %q", got[0].Description, tt.detail)
			}
		})
	}
}

func TestNameRoleValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{"empty button", `<button></button>`, []string{"Missing accessible name"}},
		{"icon button with label", `<button aria-label="Close"><i class="fa fa-x"></i></button>`, nil},
		{"labelled input", `<label for="q">Search</label><input id="q">`, nil},
		{"unlabelled input", `<input id="q">`, []string{"Missing accessible name"}},
		{"hidden input", `<input type="hidden" name="csrf">`, nil},
		{"plain div", `<div></div>`, nil},
		{"clickable div", `<div onclick="go()">Go</div>`, []string{"Missing accessible role"}},
		{"custom checkbox", `<span role="checkbox" tabindex="0">Agree</span>`, []string{"Missing accessible value"}},
		{"custom checkbox with state", `<span role="checkbox" tabindex="0" aria-checked="false">Agree</span>`, nil},
		{"native checkbox", `<label><input type="checkbox"> Agree</label>`, nil},
		{"placeholder link", `<a>Anchor</a>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := titles(check(t, "name-role-value", tt.markup))
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}
}
