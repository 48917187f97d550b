// Package planner turns a free-text goal plus contextual constraints into a
// validated, structured plan by orchestrating calls to the Gemini
// generateContent API. The pipeline is compose -> request -> validate; every
// invocation is stateless and safe to run concurrently.
package planner

// Request describes what the caller wants a plan for. Only Goal is required;
// absent optional fields are omitted from the prompt entirely so the model is
// never shown an empty placeholder.
type Request struct {
	Goal              string           `json:"goal"`
	Timeframe         string           `json:"timeframe,omitempty"`
	PriorKnowledge    string           `json:"prior_knowledge,omitempty"`
	DailyAvailability float64          `json:"daily_availability,omitempty"`
	CompletedTopics   []string         `json:"completed_topics,omitempty"`
	ProjectMetadata   *ProjectMetadata `json:"project_metadata,omitempty"`
}

// ProjectMetadata carries project-level hints forwarded to the generator.
type ProjectMetadata struct {
	Deadline   string `json:"deadline,omitempty"`
	FocusLevel string `json:"focus_level,omitempty"`
}

// CompletedTask identifies work already finished so the daily planner does
// not generate it again.
type CompletedTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Response is the validated plan returned by one generation call. It is
// created fresh per invocation and never mutated afterwards.
type Response struct {
	Curriculum  Curriculum `json:"curriculum"`
	Tasks       []PlanTask `json:"tasks"`
	Assumptions []string   `json:"assumptions"`
}

// Curriculum is the ordered topic breakdown of a plan.
type Curriculum struct {
	Overview string            `json:"overview"`
	Topics   []CurriculumTopic `json:"topics"`
}

// CurriculumTopic is one topic in the curriculum. Order is meaningful.
type CurriculumTopic struct {
	Name           string   `json:"name"`
	Priority       string   `json:"priority"` // high, medium, low
	EstimatedHours float64  `json:"estimated_hours"`
	Prerequisites  []string `json:"prerequisites"`
	Description    string   `json:"description"`
}

// PlanTask is one atomic, estimated unit of work.
type PlanTask struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	EstimatedHours float64  `json:"estimated_hours"`
	Tags           []string `json:"tags"`
}
