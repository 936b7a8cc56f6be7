package model

// PlanHabit is a habit suggested by the plan generator.
type PlanHabit struct {
	Title    string `json:"title"`
	Duration *int   `json:"duration,omitempty"`
}

// Plan is the structured goal plan returned by the generative service.
type Plan struct {
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Aspect            LifeAspect  `json:"aspect"`
	Milestones        []string    `json:"milestones"`
	Habits            []PlanHabit `json:"habits"`
	MotivationalQuote string      `json:"motivationalQuote"`
}
