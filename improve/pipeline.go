package improve

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"markestedt/refix/logger"
)

// Stage is one named cleanup step applied to a completion
type Stage struct {
	Name string
	Run  func(text string) (string, error)
}

// Pipeline applies stages in order and stops at the first failing one
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline from stages
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// DefaultPipeline sanitizes the completion and rejects what is left if it is blank
func DefaultPipeline() *Pipeline {
	return NewPipeline(SanitizeStage, NonEmptyStage)
}

// Apply runs every stage over text
func (p *Pipeline) Apply(text string) (string, error) {
	for _, stage := range p.stages {
		out, err := stage.Run(text)
		if err != nil {
			logger.Warn("Completion rejected", zap.String("stage", stage.Name), zap.Error(err))
			return "", fmt.Errorf("%s: %w", stage.Name, err)
		}
		if out != text {
			logger.Debug("Completion cleaned", zap.String("stage", stage.Name),
				zap.Int("before", len(text)), zap.Int("after", len(out)))
		}
		text = out
	}
	return text, nil
}

// SanitizeStage strips quotes and boilerplate lead-ins
var SanitizeStage = Stage{
	Name: "sanitize",
	Run: func(text string) (string, error) {
		return Sanitize(text), nil
	},
}

// NonEmptyStage fails with ErrParse when nothing but whitespace remains,
// e.g. a reply of only `"Improved text:"`
var NonEmptyStage = Stage{
	Name: "non-empty",
	Run: func(text string) (string, error) {
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: empty after sanitizing", ErrParse)
		}
		return text, nil
	},
}
