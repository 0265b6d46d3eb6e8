package justification

import (
	"fmt"
	"strings"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/models"
)

// Prompt section caps.
const (
	maxPromptNotes     = 8
	maxPromptCredits   = 10
	maxPromptInterests = 6
	maxPromptFeedback  = 6
)

const task = "TASK: Explain why this client is a fit. " +
	"Cite specific credits that match the project's media/genres/themes. " +
	"Do not discuss feedback at all if none has been received. " +
	"Mention any positive or not-positive feedback (by who, when). " +
	"Do not mention any metrics. " +
	"No fluff; facts only. Brief. Abbreviated. Robotic. " +
	"Do NOT invent facts. Keep under ~80 words."

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}

	return *s
}

func orNone(s *string) string { return orDefault(s, "None") }

func formatLevel(level *float64) string {
	if level == nil {
		return "None"
	}

	return fmt.Sprintf("%g", *level)
}

func head[T any](items []T, n int) []T {
	return items[:min(n, len(items))]
}

// ProjectTitle is the project title, or its id when untitled.
func ProjectTitle(p models.ProjectProfile) string {
	return orDefault(p.Title, p.ProjectID)
}

// PersonName is the person's name, or their id when unnamed.
func PersonName(p models.PersonProfile) string {
	if p.Name != "" {
		return p.Name
	}

	return p.ID
}

// BuildPrompt renders the user prompt: a PROJECT section, a CLIENT section and the task.
func BuildPrompt(project models.ProjectProfile, person models.PersonProfile, feedback []models.FeedbackEvent) string {
	var b strings.Builder

	b.WriteString("PROJECT\n")
	fmt.Fprintf(&b, "Title: %s\n", ProjectTitle(project))
	fmt.Fprintf(&b, "Media: %s\n", orNone(project.MediaType))

	if len(project.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(project.Genres, ", "))
	}

	if len(project.Staffing) > 0 {
		names := make([]string, len(project.Staffing))
		for i, s := range project.Staffing {
			names[i] = s.DisplayName()
		}

		fmt.Fprintf(&b, "Staffing entities: %s\n", strings.Join(names, ", "))
	}

	if project.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", project.Description)
	}

	if notes := head(project.Notes, maxPromptNotes); len(notes) > 0 {
		fmt.Fprintf(&b, "Notes:\n- %s\n", strings.Join(notes, "\n- "))
	}

	b.WriteString("\nCLIENT\n")
	fmt.Fprintf(&b, "Name: %s\n", PersonName(person))
	fmt.Fprintf(&b, "Roles: writer=%t (level=%s), director=%t (has_feature=%t)\n",
		person.IsWriter, formatLevel(person.WriterLevel), person.IsDirector, person.HasDirectedFeature)
	fmt.Fprintf(&b, "Availability: %s\n", orDefault(person.Availability, "unknown"))

	if credits := head(person.CreditsForLLM, maxPromptCredits); len(credits) > 0 {
		b.WriteString("Credits:\n")

		for _, c := range credits {
			fmt.Fprintf(&b, "- %s (%s); tags=[%s]; weight=%.2f\n",
				c.Title, c.MediaType, strings.Join(c.Tags, ", "), c.Weight)
		}
	}

	if interests := head(person.InterestsAndGoals, maxPromptInterests); len(interests) > 0 {
		fmt.Fprintf(&b, "Interests/Goals: %s\n", strings.Join(interests, "; "))
	}

	if events := head(feedback, maxPromptFeedback); len(events) > 0 {
		b.WriteString("Feedback from staffing entities:\n")

		for _, e := range events {
			created := "None"
			if e.CreatedAt != nil {
				created = e.CreatedAt.UTC().Format("2006-01-02 15:04:05")
			}

			fmt.Fprintf(&b, "- %s: %s: %s — %s\n",
				created, e.DisplayName(), orNone(e.Sentiment), orNone(e.FeedbackText))
		}
	}

	b.WriteString("\n")
	b.WriteString(task)

	return b.String()
}
