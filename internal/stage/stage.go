// Package stage holds the fixed project lifecycle and the gate rules that
// decide which stage a project is in and what may happen to each stage.
//
// The five stages are totally ordered: a stage is workable only once every
// stage before it has an Approved approval row. Nothing here is persisted;
// callers hand in the project's tasks and approval rows and get a freshly
// derived Board back on every call.
package stage

import "strings"

// Stage is one fixed phase of a project.
type Stage struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

var stages = []Stage{
	{ID: "stage-1", Code: "F1", Title: "Initiation", Order: 1},
	{ID: "stage-2", Code: "F2", Title: "Planning", Order: 2},
	{ID: "stage-3", Code: "F3", Title: "Execution", Order: 3},
	{ID: "stage-4", Code: "F4", Title: "Monitoring", Order: 4},
	{ID: "stage-5", Code: "F5", Title: "Closure", Order: 5},
}

// All returns the stages in gate order.
func All() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// First is the stage every project starts in.
func First() Stage { return stages[0] }

// Last is the final stage.
func Last() Stage { return stages[len(stages)-1] }

// Lookup resolves a canonical id ("stage-3"), a short code ("F3") or a title
// fragment ("Execution", "exec") to a stage. Matching is case-insensitive.
func Lookup(s string) (Stage, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return Stage{}, false
	}

	for _, st := range stages {
		if key == strings.ToLower(st.ID) || key == strings.ToLower(st.Code) {
			return st, true
		}
	}

	for _, st := range stages {
		title := strings.ToLower(st.Title)
		if strings.Contains(key, title) || strings.Contains(title, key) {
			return st, true
		}
	}

	// "F3 - Execution" style labels that carry the code as a prefix
	for _, st := range stages {
		code := strings.ToLower(st.Code)
		if strings.HasPrefix(key, code+" ") || strings.HasPrefix(key, code+"-") || strings.HasPrefix(key, code+":") {
			return st, true
		}
	}

	return Stage{}, false
}

// Normalize is Lookup with a fallback: anything unresolvable maps to the
// first stage.
func Normalize(s string) Stage {
	if st, ok := Lookup(s); ok {
		return st
	}
	return First()
}

// NormalizeID returns the canonical id for any stage alias.
func NormalizeID(s string) string {
	return Normalize(s).ID
}

// Index returns the zero-based position of the stage with the given
// canonical id, or -1.
func Index(id string) int {
	for i, st := range stages {
		if st.ID == id {
			return i
		}
	}
	return -1
}

// Next returns the stage gated by st.
func Next(st Stage) (Stage, bool) {
	i := Index(st.ID)
	if i < 0 || i+1 >= len(stages) {
		return Stage{}, false
	}
	return stages[i+1], true
}

// Prev returns the stage that gates st.
func Prev(st Stage) (Stage, bool) {
	i := Index(st.ID)
	if i <= 0 {
		return Stage{}, false
	}
	return stages[i-1], true
}
