package ai

import (
	"fmt"

	"github.com/tonimelisma/lifegoal-go/internal/model"
)

func planPrompt(dream string) string {
	return fmt.Sprintf(`The user has a vague dream or goal: %q.
Please analyze this and break it down into a concrete, SMART goal plan.
1. Identify the most relevant Life Aspect from this list: Health, Relationships, Financial, Learning, Career, Spiritual.
2. Create a concise, inspiring Title for the goal.
3. Write a short 1-sentence Description.
4. List 3 key Milestones (achievable sub-goals).
5. List 2 daily Habits that will help achieve this. If a habit involves a time duration (like meditating, reading, or exercise), specify the recommended duration in minutes.
6. Provide a short Motivational Quote relevant to this goal.`, dream)
}

func advicePrompt(goalTitle string, progress int) string {
	return fmt.Sprintf(`I am currently working on this goal: %q.
My progress is at %d%%.
Give me one short, punchy paragraph of specific advice to keep moving forward or to overcome the "middle-of-the-road" slump.
Keep it under 50 words.`, goalTitle, progress)
}

// planSchema is the response schema for GeneratePlan in the service's
// OpenAPI subset.
func planSchema() map[string]any {
	aspects := make([]string, 0, len(model.Aspects))
	for _, a := range model.Aspects {
		aspects = append(aspects, string(a))
	}

	str := map[string]any{"type": "STRING"}

	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"title":       str,
			"description": str,
			"aspect":      map[string]any{"type": "STRING", "enum": aspects},
			"milestones":  map[string]any{"type": "ARRAY", "items": str},
			"habits": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"title": str,
						"duration": map[string]any{
							"type":        "NUMBER",
							"description": "Recommended duration in minutes, if applicable.",
						},
					},
					"required": []string{"title"},
				},
			},
			"motivationalQuote": str,
		},
		"required": []string{"title", "description", "aspect", "milestones", "habits", "motivationalQuote"},
	}
}
