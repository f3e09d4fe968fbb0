package models

import "fmt"

// Severity classifies how serious an issue is. Error-severity issues
// signal the caller to warn, never to refuse listing or export.
type Severity string

// Severity levels, ordered error > warn > info.
const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
	SeverityInfo  Severity = "info"
)

// Stage names the pipeline stage that raised an issue.
type Stage string

// Pipeline stages in execution order.
const (
	StageConfig      Stage = "config"
	StageSchema      Stage = "schema"
	StageSource      Stage = "source"
	StageAttribution Stage = "attribution"
	StageValidation  Stage = "validation"
	StageLint        Stage = "lint"
)

// Issue is a non-fatal diagnostic attached to the vault or to a
// specific object. Issues are append-only during a run and keep
// generation order.
type Issue struct {
	Severity Severity `json:"severity"`
	Stage    Stage    `json:"stage"`
	Message  string   `json:"message"`
	ObjectID string   `json:"object_id,omitempty"`
	SourceID string   `json:"source_id,omitempty"`
	Path     string   `json:"path,omitempty"`
	Rule     string   `json:"rule,omitempty"`
}

// String renders the issue the way the check command prints it.
func (i Issue) String() string {
	loc := i.Path
	if loc == "" {
		loc = i.ObjectID
	}
	if loc != "" {
		return fmt.Sprintf("%s [%s] %s: %s", i.Severity, i.Stage, loc, i.Message)
	}
	return fmt.Sprintf("%s [%s] %s", i.Severity, i.Stage, i.Message)
}
