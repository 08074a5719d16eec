package chefskiss

import (
	"context"
	"net/http"

	"chefskiss/tools"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Notifier interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

type Coordinator interface {
	Run(ctx context.Context, task string) (string, error)
}

// Recommendations is the final structure expected from the LLM.
type Recommendations struct {
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommendation is a single suggested recipe with its calculated macros.
type Recommendation struct {
	Recipe string      `json:"recipe"`
	Macros MacroTotals `json:"macros"`
	Reason string      `json:"reason"`
}

// MacroTotals mirrors the recipe_macros tool output so the model cannot
// invent nutritional numbers the tool never produced.
type MacroTotals struct {
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
}

// IsValid checks that the recommendations meet basic shape requirements.
func (r *Recommendations) IsValid() bool {
	if r.Summary == "" {
		return false
	}
	if len(r.Recommendations) == 0 {
		return false
	}
	for _, rec := range r.Recommendations {
		if rec.Recipe == "" || rec.Reason == "" {
			return false
		}
		if rec.Macros.Calories <= 0 {
			return false
		}
	}
	return true
}
