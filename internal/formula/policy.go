package formula

import "github.com/tally-dev/tally/internal/model"

// InvalidFormulaError is a user-correctable rejection of a formula's shape,
// distinct from a detected cycle. The caller re-prompts with Reason.
type InvalidFormulaError struct {
	Reason string
}

func (e *InvalidFormulaError) Error() string {
	return "invalid formula: " + e.Reason
}

// CheckFormula enforces the save-time policy that runs before cycle
// validation: a calculated account needs at least one term and may not
// reference itself. With strict set, every term must also resolve to an
// existing entity — without it, dangling references are tolerated at save
// time and contribute zero at evaluation time.
func CheckFormula(candidateID int, f model.Formula, g Graph, strict bool) error {
	if len(f) == 0 {
		return &InvalidFormulaError{Reason: "calculated account must have at least one term"}
	}
	for _, t := range f {
		if !t.Kind.Valid() {
			return &InvalidFormulaError{Reason: "unknown term target kind " + string(t.Kind)}
		}
		if t.Kind == model.KindAccount && t.ID == candidateID {
			return &InvalidFormulaError{Reason: "account cannot reference itself"}
		}
		if strict && !g.Exists(t.Kind, t.ID) {
			return &InvalidFormulaError{Reason: "term references missing " + g.Label(t.Kind, t.ID)}
		}
	}
	return nil
}
