package checker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

// durationAttrs are the data attributes carousel, toast and modal libraries
// use for auto-dismiss delays.
var durationAttrs = []string{"data-delay", "data-timeout", "data-duration", "data-autohide-delay", "data-bs-delay"}

// declaredDuration reads the first duration attribute. Bare numbers are
// milliseconds; values with a unit are parsed by time.ParseDuration.
func declaredDuration(s *goquery.Selection) (time.Duration, bool) {
	for _, attr := range durationAttrs {
		v := strings.TrimSpace(dom.Attr(s, attr, ""))
		if v == "" {
			continue
		}
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond, true
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d, true
		}
	}
	return 0, false
}

// staysOpen reports whether auto-dismissal is switched off.
func staysOpen(s *goquery.Selection) bool {
	for _, attr := range []string{"data-autohide", "data-bs-autohide"} {
		if dom.AttrLower(s, attr) == "false" {
			return true
		}
	}
	return false
}

func timingFinding(r *rule, s *goquery.Selection, what string, d, min time.Duration, assumed bool) finding {
	source := "declared"
	if assumed {
		source = "assumed"
	}
	return finding{
		rule: r,
		sel:  s,
		description: fmt.Sprintf("The %s is dismissed after %s (%s), less than the %s users may need.",
			what, d, source, min),
		extra: map[string]any{
			"duration_ms": d.Milliseconds(),
			"assumed":     assumed,
		},
	}
}

var ruleToastTooFast = &rule{
	title:       "Error message disappears too quickly",
	category:    model.CategoryTiming,
	severity:    model.SeverityHigh,
	wcag:        "2.2.1",
	description: "A toast or alert is dismissed automatically before users can read it.",
	remediation: "Keep messages visible until the user dismisses them, or extend the delay and let users pause it.",
	impact:      "Users who read slowly or use screen magnification miss the message.",
}

var toastClasses = []string{"toast", "notification", "alert", "error-message"}

type toastErrors struct{ base }

func newToastErrors(o *Options) Checker {
	return &toastErrors{newBase("toast-errors", FamilyTiming, PerElement, o)}
}

// Check implements Checker.
func (c *toastErrors) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, s := range doc.FindByClass(toastClasses) {
		if staysOpen(s) {
			continue
		}
		d, ok := declaredDuration(s)
		if !ok {
			d = c.opts.AssumedToastDuration
		}
		if d >= c.opts.MinVisibleDuration {
			continue
		}
		findings = append(findings, timingFinding(ruleToastTooFast, s, "message", d, c.opts.MinVisibleDuration, !ok))
	}
	return c.report(doc, source, findings), nil
}

var ruleOverlayTooFast = &rule{
	title:       "Overlay disappears too quickly",
	category:    model.CategoryTiming,
	severity:    model.SeverityHigh,
	wcag:        "2.2.1",
	description: "An overlay opened from a control closes automatically before users can interact with it.",
	remediation: "Keep overlays open until the user closes them.",
	impact:      "Keyboard and screen reader users may not reach the overlay content in time.",
}

var overlayClasses = []string{"overlay", "popup", "modal"}

type overlayTimeout struct{ base }

func newOverlayTimeout(o *Options) Checker {
	return &overlayTimeout{newBase("overlay-timeout", FamilyTiming, PerElement, o)}
}

// Check implements Checker. Overlays are only considered when the page has
// a control that could open them.
func (c *overlayTimeout) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	if !hasOverlayTrigger(doc) {
		return nil, nil
	}
	var findings []finding
	for _, s := range doc.FindByClass(overlayClasses, "div", "dialog") {
		if staysOpen(s) {
			continue
		}
		d, ok := declaredDuration(s)
		if !ok {
			d = c.opts.AssumedOverlayDuration
		}
		if d >= c.opts.MinVisibleDuration {
			continue
		}
		findings = append(findings, timingFinding(ruleOverlayTooFast, s, "overlay", d, c.opts.MinVisibleDuration, !ok))
	}
	return c.report(doc, source, findings), nil
}

func hasOverlayTrigger(doc *dom.Document) bool {
	return len(doc.FindFunc(func(s *goquery.Selection) bool {
		switch dom.Tag(s) {
		case "button":
			return true
		case "a", "div":
			if dom.HasAttr(s, "onclick") {
				return true
			}
		}
		return dom.HasClass(s, "button")
	})) > 0
}

var (
	ruleNoSessionWarning = &rule{
		title:       "No session timeout warning",
		category:    model.CategoryTiming,
		severity:    model.SeverityHigh,
		wcag:        "2.2.1",
		description: "The page keeps a user session but shows no warning before the session expires.",
		remediation: "Warn users before the session times out and let them extend it with a simple action.",
		impact:      "Users who need more time lose their work when the session expires without notice.",
	}
	ruleSessionWarningSilent = &rule{
		title:       "Session timeout warning is not screen reader friendly",
		category:    model.CategoryTiming,
		severity:    model.SeverityMedium,
		wcag:        "2.2.1",
		description: "The session timeout warning is not announced to assistive technology.",
		remediation: "Add aria-live=\"assertive\" or role=\"alertdialog\" to the warning.",
		impact:      "Screen reader users do not hear the warning and cannot react in time.",
	}
)

var sessionWarningClasses = []string{"session-warning", "timeout-alert", "modal-warning", "session-timeout"}

type sessionTimeout struct{ base }

func newSessionTimeout(o *Options) Checker {
	return &sessionTimeout{newBase("session-timeout", FamilyTiming, PerElement, o)}
}

// Check implements Checker. Pages without a login form or logout control
// are assumed to have no session.
func (c *sessionTimeout) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	if !hasSession(doc) {
		return nil, nil
	}
	warnings := doc.FindByClass(sessionWarningClasses)
	if len(warnings) == 0 {
		return c.report(doc, source, []finding{{rule: ruleNoSessionWarning}}), nil
	}

	var findings []finding
	for _, s := range warnings {
		if dom.AttrLower(s, "aria-live") == "assertive" {
			continue
		}
		switch dom.AttrLower(s, "role") {
		case "alert", "alertdialog":
			continue
		}
		findings = append(findings, finding{rule: ruleSessionWarningSilent, sel: s})
	}
	return c.report(doc, source, findings), nil
}

var logoutHints = []string{"logout", "log-out", "log out", "signout", "sign-out", "sign out"}

func hasSession(doc *dom.Document) bool {
	if len(doc.FindByAttrValue("type", "password", "input")) > 0 {
		return true
	}
	return len(doc.FindFunc(func(s *goquery.Selection) bool {
		var text string
		switch dom.Tag(s) {
		case "a":
			text = dom.AttrLower(s, "href") + " " + strings.ToLower(dom.Text(s))
		case "form":
			text = dom.AttrLower(s, "action")
		case "button":
			text = strings.ToLower(dom.Text(s))
		default:
			return false
		}
		for _, hint := range logoutHints {
			if strings.Contains(text, hint) {
				return true
			}
		}
		return false
	})) > 0
}
