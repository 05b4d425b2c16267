// Package narrative renders period data into the prompt sent to the text
// generation service. Output is a pure function of the inputs.
package narrative

import (
	"fmt"
	"strings"
	"time"

	"growthtrack/internal/analytics"
	"growthtrack/internal/models"
)

// DisplayDateLayout is used for every date in the prompt
const DisplayDateLayout = "Jan 2, 2006"

// MinPositiveSleepQuality is the lowest sleep score that counts as a
// positive behavior on its own
const MinPositiveSleepQuality = 4

const (
	noGrowthText     = "No growth measurements were recorded this week."
	noMilestonesText = "No new milestones were recorded this week."
)

const instructions = `Please write a summary that:
1. Highlights key developments and growth
2. Celebrates any milestones achieved
3. Offers 1-2 actionable, age-appropriate tips for the coming week
4. Keeps an encouraging, supportive tone
5. Acknowledges quiet weeks as a normal part of development

Keep the summary between 200-300 words. Write conversationally, addressing the parent directly in the second person ("you", "your").`

// BuildPrompt assembles the generation prompt for one child and period
func BuildPrompt(
	childName string,
	dateOfBirth, periodStart, periodEnd time.Time,
	growth []models.GrowthMeasurement,
	milestones []models.Milestone,
	behavior []models.BehaviorEntry,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a warm, encouraging weekly summary for %s (%s old).\n\n",
		childName, AgeDescription(dateOfBirth, periodEnd))
	fmt.Fprintf(&b, "Week: %s - %s\n\n", formatDate(periodStart), formatDate(periodEnd))

	b.WriteString("Growth measurements:\n")
	if len(growth) == 0 {
		b.WriteString(noGrowthText + "\n")
	}
	for _, g := range growth {
		b.WriteString("- " + growthLine(g) + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Milestones achieved:\n")
	if len(milestones) == 0 {
		b.WriteString(noMilestonesText + "\n")
	}
	for _, m := range milestones {
		b.WriteString("- " + milestoneLine(m) + "\n")
	}
	b.WriteString("\n")

	if positive := positiveBehaviors(behavior); len(positive) > 0 {
		b.WriteString("Positive behaviors:\n")
		for _, e := range positive {
			b.WriteString("- " + behaviorLine(e) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(instructions)
	return b.String()
}

// AgeDescription renders the age at asOf, for example "1 year and 2 months",
// "5 months" or "12 days"
func AgeDescription(dob, asOf time.Time) string {
	age := analytics.AgeBetween(dob, asOf)
	switch {
	case age.Years > 0:
		return plural(age.Years, "year") + " and " + plural(age.Months, "month")
	case age.Months > 0:
		return plural(age.Months, "month")
	default:
		return plural(age.Days, "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}

func growthLine(g models.GrowthMeasurement) string {
	var parts []string
	for _, metric := range models.Metrics {
		if v := g.Value(metric); v != nil {
			parts = append(parts, fmt.Sprintf("%s: %.1f%s", metric.Label(), *v, metric.Unit()))
		}
	}
	line := formatDate(g.Date) + ": " + strings.Join(parts, ", ")
	if notes := strings.TrimSpace(g.Notes); notes != "" {
		line += " (Note: " + notes + ")"
	}
	return line
}

func milestoneLine(m models.Milestone) string {
	line := fmt.Sprintf("%s (%s, %s)", m.Description, m.Category.Label(), formatDate(m.AchievementDate))
	if notes := strings.TrimSpace(m.Notes); notes != "" {
		line += " - " + notes
	}
	return line
}

func positiveBehaviors(entries []models.BehaviorEntry) []models.BehaviorEntry {
	var out []models.BehaviorEntry
	for _, e := range entries {
		goodSleep := e.SleepQuality != nil && *e.SleepQuality >= MinPositiveSleepQuality
		if strings.TrimSpace(e.Notes) != "" || goodSleep {
			out = append(out, e)
		}
	}
	return out
}

func behaviorLine(e models.BehaviorEntry) string {
	var parts []string
	if e.Mood != nil {
		parts = append(parts, "Mood: "+e.Mood.Label())
	}
	if e.SleepQuality != nil {
		parts = append(parts, fmt.Sprintf("Sleep: %d/5", *e.SleepQuality))
	}
	if e.EatingHabits != nil {
		parts = append(parts, "Eating: "+e.EatingHabits.Label())
	}

	line := formatDate(e.Date) + ":"
	if len(parts) > 0 {
		line += " " + strings.Join(parts, ", ")
	}
	if notes := strings.TrimSpace(e.Notes); notes != "" {
		line += " - " + notes
	}
	return line
}
