package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tally-dev/tally/internal/model"
)

// Graph provides read access to the entity snapshot the validator walks.
type Graph interface {
	// Account returns an account by ID.
	Account(id int) (model.Account, bool)
	// Members returns the non-archived member account IDs of a group or
	// institution. Returns nil for account targets.
	Members(kind model.TargetKind, id int) []int
	// Label returns a human-readable name for an entity, for cycle messages.
	Label(kind model.TargetKind, id int) string
	// Exists reports whether an entity is present in the snapshot.
	Exists(kind model.TargetKind, id int) bool
}

// Result is the outcome of a cycle check. A detected cycle is a reportable
// outcome, not an error: the caller surfaces Message to the user and refuses
// to persist the formula.
type Result struct {
	HasCycle bool
	Path     []string // entity labels, starting and ending at the candidate
	Message  string
}

// CycleError wraps a Result for callers that persist formulas and need a
// single error value to refuse the write with.
type CycleError struct {
	Result Result
}

func (e *CycleError) Error() string {
	return e.Result.Message
}

// node is one vertex of the balance dependency graph.
type node struct {
	kind model.TargetKind
	id   int
}

// expanders maps a target kind to its outgoing dependency edges: a
// calculated account depends on its formula targets, a group or institution
// depends on every member account. Plain and dangling accounts are inert.
var expanders = map[model.TargetKind]func(g Graph, id int) []node{
	model.KindAccount: func(g Graph, id int) []node {
		a, ok := g.Account(id)
		if !ok || !a.IsCalculated {
			return nil
		}
		deps := make([]node, 0, len(a.Formula))
		for _, t := range a.Formula {
			deps = append(deps, node{t.Kind, t.ID})
		}
		return deps
	},
	model.KindGroup:       memberNodes(model.KindGroup),
	model.KindInstitution: memberNodes(model.KindInstitution),
}

func memberNodes(kind model.TargetKind) func(g Graph, id int) []node {
	return func(g Graph, id int) []node {
		members := g.Members(kind, id)
		deps := make([]node, 0, len(members))
		for _, m := range members {
			deps = append(deps, node{model.KindAccount, m})
		}
		return deps
	}
}

// Validate checks whether giving candidateID the proposed formula would
// close a cycle in the balance dependency graph. It walks each term's
// existing dependencies (formula edges of calculated accounts, membership
// fan-out for groups and institutions) and fails the moment the candidate
// is reachable again. Diamonds are legal; only a path back to the candidate
// is a cycle.
//
// An error is returned only for malformed input. A detected cycle comes
// back in the Result.
func Validate(candidateID int, f model.Formula, g Graph) (Result, error) {
	if g == nil {
		return Result{}, errors.New("validate: nil graph")
	}
	for _, t := range f {
		if !t.Kind.Valid() {
			return Result{}, fmt.Errorf("validate: unknown term target kind %q", t.Kind)
		}
	}

	origin := g.Label(model.KindAccount, candidateID)

	for _, t := range f {
		visited := make(map[node]bool)
		path := []string{origin, g.Label(t.Kind, t.ID)}
		if canReach(node{t.Kind, t.ID}, candidateID, g, visited, &path) {
			return Result{
				HasCycle: true,
				Path:     path,
				Message:  fmt.Sprintf("circular dependency detected: %s", strings.Join(path, " -> ")),
			}, nil
		}
	}

	return Result{}, nil
}

// canReach reports whether from can reach the candidate account through
// formula and membership edges. path accumulates the labels of the
// recursion path for the cycle message.
func canReach(from node, candidateID int, g Graph, visited map[node]bool, path *[]string) bool {
	if from.kind == model.KindAccount && from.id == candidateID {
		return true
	}
	if visited[from] {
		return false
	}
	visited[from] = true

	for _, next := range expanders[from.kind](g, from.id) {
		*path = append(*path, g.Label(next.kind, next.id))
		if canReach(next, candidateID, g, visited, path) {
			return true
		}
		*path = (*path)[:len(*path)-1]
	}
	return false
}
