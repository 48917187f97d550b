package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultOverview is substituted when a structurally valid reply omits the
// curriculum overview. This is the only repair the validator performs.
const DefaultOverview = "Generated curriculum for the specified goal"

// Strictness controls how far validation reaches into the reply.
type Strictness int

const (
	// StrictnessShape checks the documented top-level shape only; mistyped
	// leaf fields inside topics and tasks are dropped, not rejected.
	StrictnessShape Strictness = iota
	// StrictnessFull additionally rejects mistyped leaf fields.
	StrictnessFull
)

// Validate parses a raw model reply into a Response, enforcing the required
// shape with default strictness.
func Validate(raw string) (*Response, error) {
	return ValidateWithStrictness(raw, StrictnessShape)
}

// ValidateWithStrictness parses and validates a raw reply. The checks run in
// a fixed order and each failure carries the offending field path.
func ValidateWithStrictness(raw string, level Strictness) (*Response, error) {
	cleaned := stripFences(raw)

	var root interface{}
	if err := json.Unmarshal([]byte(cleaned), &root); err != nil {
		return nil, &ParseError{Err: err, Raw: raw}
	}
	// Valid JSON that is not an object fails the first shape check, the
	// same way an object without the field would.
	parsed, ok := root.(map[string]interface{})
	if !ok {
		return nil, &ValidationError{Field: "curriculum", Expected: "object", Got: "missing"}
	}

	curriculumVal, ok := parsed["curriculum"]
	if !ok {
		return nil, &ValidationError{Field: "curriculum", Expected: "object", Got: "missing"}
	}
	tasksVal, ok := parsed["tasks"]
	if !ok {
		return nil, &ValidationError{Field: "tasks", Expected: "array", Got: "missing"}
	}
	assumptionsVal, ok := parsed["assumptions"]
	if !ok {
		return nil, &ValidationError{Field: "assumptions", Expected: "array", Got: "missing"}
	}

	curriculum, ok := curriculumVal.(map[string]interface{})
	if !ok {
		return nil, &ValidationError{Field: "curriculum", Expected: "object", Got: jsonKind(curriculumVal)}
	}
	topicsVal, ok := curriculum["topics"]
	if !ok {
		return nil, &ValidationError{Field: "curriculum.topics", Expected: "array", Got: "missing"}
	}
	topics, ok := topicsVal.([]interface{})
	if !ok {
		return nil, &ValidationError{Field: "curriculum.topics", Expected: "array", Got: jsonKind(topicsVal)}
	}
	tasks, ok := tasksVal.([]interface{})
	if !ok {
		return nil, &ValidationError{Field: "tasks", Expected: "array", Got: jsonKind(tasksVal)}
	}
	assumptions, ok := assumptionsVal.([]interface{})
	if !ok {
		return nil, &ValidationError{Field: "assumptions", Expected: "array", Got: jsonKind(assumptionsVal)}
	}

	resp := &Response{}

	overview, _ := curriculum["overview"].(string)
	if overview == "" {
		overview = DefaultOverview
	}
	resp.Curriculum.Overview = overview

	resp.Curriculum.Topics = make([]CurriculumTopic, 0, len(topics))
	for i, raw := range topics {
		topic, err := decodeTopic(raw, fmt.Sprintf("curriculum.topics[%d]", i), level)
		if err != nil {
			return nil, err
		}
		resp.Curriculum.Topics = append(resp.Curriculum.Topics, topic)
	}

	resp.Tasks = make([]PlanTask, 0, len(tasks))
	for i, raw := range tasks {
		task, err := decodeTask(raw, fmt.Sprintf("tasks[%d]", i), level)
		if err != nil {
			return nil, err
		}
		resp.Tasks = append(resp.Tasks, task)
	}

	resp.Assumptions = make([]string, 0, len(assumptions))
	for i, raw := range assumptions {
		s, ok := raw.(string)
		if !ok && level == StrictnessFull {
			return nil, &ValidationError{Field: fmt.Sprintf("assumptions[%d]", i), Expected: "string", Got: jsonKind(raw)}
		}
		resp.Assumptions = append(resp.Assumptions, s)
	}

	return resp, nil
}

// stripFences removes a wrapping markdown code fence, with or without a
// language tag, leaving anything unfenced untouched.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag on the opening fence line. Payload starting right
	// on the fence line stays intact.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && isLanguageTag(strings.TrimSpace(s[:idx])) {
		s = s[idx+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isLanguageTag reports whether s looks like a fence language tag ("json").
func isLanguageTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func decodeTopic(raw interface{}, path string, level Strictness) (CurriculumTopic, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		if level == StrictnessFull {
			return CurriculumTopic{}, &ValidationError{Field: path, Expected: "object", Got: jsonKind(raw)}
		}
		return CurriculumTopic{}, nil
	}

	topic := CurriculumTopic{Prerequisites: []string{}}
	var err error
	if topic.Name, err = leafString(obj, "name", path, level); err != nil {
		return CurriculumTopic{}, err
	}
	if topic.Priority, err = leafString(obj, "priority", path, level); err != nil {
		return CurriculumTopic{}, err
	}
	if topic.Description, err = leafString(obj, "description", path, level); err != nil {
		return CurriculumTopic{}, err
	}
	if topic.EstimatedHours, err = leafNumber(obj, "estimated_hours", path, level); err != nil {
		return CurriculumTopic{}, err
	}
	if topic.Prerequisites, err = leafStrings(obj, "prerequisites", path, level); err != nil {
		return CurriculumTopic{}, err
	}
	return topic, nil
}

func decodeTask(raw interface{}, path string, level Strictness) (PlanTask, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		if level == StrictnessFull {
			return PlanTask{}, &ValidationError{Field: path, Expected: "object", Got: jsonKind(raw)}
		}
		return PlanTask{}, nil
	}

	task := PlanTask{Tags: []string{}}
	var err error
	if task.Title, err = leafString(obj, "title", path, level); err != nil {
		return PlanTask{}, err
	}
	if task.Description, err = leafString(obj, "description", path, level); err != nil {
		return PlanTask{}, err
	}
	if task.EstimatedHours, err = leafNumber(obj, "estimated_hours", path, level); err != nil {
		return PlanTask{}, err
	}
	if task.Tags, err = leafStrings(obj, "tags", path, level); err != nil {
		return PlanTask{}, err
	}
	return task, nil
}

func leafString(obj map[string]interface{}, key, path string, level Strictness) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok && level == StrictnessFull {
		return "", &ValidationError{Field: path + "." + key, Expected: "string", Got: jsonKind(v)}
	}
	return s, nil
}

func leafNumber(obj map[string]interface{}, key, path string, level Strictness) (float64, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, ok := v.(float64)
	if !ok && level == StrictnessFull {
		return 0, &ValidationError{Field: path + "." + key, Expected: "number", Got: jsonKind(v)}
	}
	return n, nil
}

func leafStrings(obj map[string]interface{}, key, path string, level Strictness) ([]string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return []string{}, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		if level == StrictnessFull {
			return nil, &ValidationError{Field: path + "." + key, Expected: "array", Got: jsonKind(v)}
		}
		return []string{}, nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok && level == StrictnessFull {
			return nil, &ValidationError{Field: fmt.Sprintf("%s.%s[%d]", path, key, i), Expected: "string", Got: jsonKind(item)}
		}
		out = append(out, s)
	}
	return out, nil
}

// jsonKind names the JSON kind of a decoded value for error messages.
func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
