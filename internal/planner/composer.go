package planner

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Mode selects which composer variant renders the prompt.
type Mode int

const (
	// ModeFullCurriculum asks for a multi-phase curriculum plus tasks
	// spanning the whole timeframe.
	ModeFullCurriculum Mode = iota
	// ModeDailyOnly asks for today's tasks only and forbids repeating any
	// completed task supplied by the caller.
	ModeDailyOnly
)

func (m Mode) String() string {
	switch m {
	case ModeFullCurriculum:
		return "full_curriculum"
	case ModeDailyOnly:
		return "daily"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Composer deterministically renders the complete instruction text for one
// generation call. It performs no I/O; given identical inputs and the same
// clock reading its output is byte-identical.
type Composer struct {
	mode Mode
	now  func() time.Time
}

// NewComposer creates a composer for the given mode.
func NewComposer(mode Mode) *Composer {
	return &Composer{mode: mode, now: time.Now}
}

// Mode reports which variant this composer renders.
func (c *Composer) Mode() Mode { return c.mode }

// Compose renders system instructions, the output schema and the user
// context into one prompt. completedTasks is only consulted in daily mode.
// The caller is responsible for ensuring req.Goal is non-empty.
func (c *Composer) Compose(req Request, completedTasks []CompletedTask) string {
	var system, schema, user string
	switch c.mode {
	case ModeDailyOnly:
		system = dailySystemPrompt
		schema = dailySchemaBlock
		user = c.dailyUserPrompt(req, completedTasks)
	default:
		system = fullCurriculumSystemPrompt
		schema = fullCurriculumSchemaBlock
		user = c.fullUserPrompt(req)
	}
	return system + schema + "\n\n" + user + outputReminder
}

// dailyUserPrompt builds the user-context block for today's plan. The current
// date is embedded so the model knows what "today" means.
func (c *Composer) dailyUserPrompt(req Request, completedTasks []CompletedTask) string {
	today := c.now().Format("Monday, January 2, 2006")

	var b strings.Builder
	fmt.Fprintf(&b, "Generate TODAY'S plan (%s) for the following goal:\n\n", today)
	fmt.Fprintf(&b, "Goal: %s\n\n", req.Goal)

	if len(completedTasks) > 0 {
		titles := make([]string, 0, len(completedTasks))
		for _, t := range completedTasks {
			titles = append(titles, t.Title)
		}
		fmt.Fprintf(&b, "CRITICAL: These %d tasks are already completed. DO NOT create any task with a similar or identical title: %s\n\n",
			len(completedTasks), strings.Join(titles, ", "))
	} else {
		b.WriteString("Note: No tasks have been completed yet. This appears to be the first day of planning.\n\n")
	}

	if req.DailyAvailability > 0 {
		fmt.Fprintf(&b, "Available Time Today: %s hours\n", formatHours(req.DailyAvailability))
	} else {
		b.WriteString("Available Time Today: Please estimate based on a typical work day\n")
	}

	c.writeOptionalContext(&b, req)

	b.WriteString("\nGenerate TODAY'S plan only. Focus on what can be accomplished today to move toward the goal. Do not repeat completed tasks.")
	return b.String()
}

// fullUserPrompt builds the user-context block for a whole-timeframe plan.
func (c *Composer) fullUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Generate a complete curriculum and task list for the following goal:\n\n")
	fmt.Fprintf(&b, "Goal: %s\n\n", req.Goal)

	if len(req.CompletedTopics) > 0 {
		fmt.Fprintf(&b, "Already Completed Topics (do not include these): %s\n\n", strings.Join(req.CompletedTopics, ", "))
	}

	if req.DailyAvailability > 0 {
		fmt.Fprintf(&b, "Daily Availability: %s hours\n", formatHours(req.DailyAvailability))
	}

	c.writeOptionalContext(&b, req)

	b.WriteString("\nGenerate the full plan covering the whole timeframe. Order topics so prerequisites come first.")
	return b.String()
}

// writeOptionalContext appends one labeled line per optional field actually
// present. Absent fields produce nothing, so the model never sees an empty
// or null placeholder.
func (c *Composer) writeOptionalContext(b *strings.Builder, req Request) {
	if req.Timeframe != "" {
		fmt.Fprintf(b, "Timeframe: %s\n", req.Timeframe)
	}
	if req.PriorKnowledge != "" {
		fmt.Fprintf(b, "Prior Knowledge: %s\n", req.PriorKnowledge)
	}
	if md := req.ProjectMetadata; md != nil {
		if md.Deadline != "" {
			if days, ok := daysUntil(md.Deadline, c.now()); ok {
				fmt.Fprintf(b, "Deadline: %s (%d days from today)\n", md.Deadline, days)
			} else {
				fmt.Fprintf(b, "Deadline: %s\n", md.Deadline)
			}
		}
		if md.FocusLevel != "" {
			fmt.Fprintf(b, "Focus Level: %s\n", md.FocusLevel)
		}
	}
}

// daysUntil parses a deadline in the formats the dashboard emits and returns
// the whole days remaining, rounded up.
func daysUntil(deadline string, now time.Time) (int, bool) {
	var t time.Time
	var err error
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		t, err = time.Parse(layout, deadline)
		if err == nil {
			break
		}
	}
	if err != nil {
		return 0, false
	}
	days := int(math.Ceil(t.Sub(now).Hours() / 24))
	return days, true
}

// formatHours renders an hour count without a trailing ".0" for whole hours.
func formatHours(h float64) string {
	if h == math.Trunc(h) {
		return fmt.Sprintf("%d", int(h))
	}
	return strings.TrimRight(fmt.Sprintf("%.2f", h), "0")
}
