package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/auditlog"
	"github.com/tally-dev/tally/internal/formula"
	"github.com/tally-dev/tally/internal/model"
)

func newFormulaCommand(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formula",
		Short: "Manage calculated-account formulas",
	}

	cmd.AddCommand(newFormulaSetCommand(dataDir))
	cmd.AddCommand(newFormulaClearCommand(dataDir))
	cmd.AddCommand(newFormulaCheckCommand(dataDir))

	return cmd
}

// parseTerm parses "kind:id:coefficient", e.g. "account:3:2" or "group:10:-1".
func parseTerm(s string) (model.Term, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return model.Term{}, fmt.Errorf("term %q: want kind:id:coefficient", s)
	}

	kind := model.TargetKind(parts[0])
	if !kind.Valid() {
		return model.Term{}, fmt.Errorf("term %q: unknown kind %q (account, group or institution)", s, parts[0])
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return model.Term{}, fmt.Errorf("term %q: invalid id %q", s, parts[1])
	}
	coeff, err := decimal.NewFromString(parts[2])
	if err != nil {
		return model.Term{}, fmt.Errorf("term %q: invalid coefficient %q", s, parts[2])
	}
	return model.Term{Kind: kind, ID: id, Coefficient: coeff}, nil
}

func parseTerms(specs []string) (model.Formula, error) {
	f := make(model.Formula, 0, len(specs))
	for _, s := range specs {
		t, err := parseTerm(s)
		if err != nil {
			return nil, err
		}
		f = append(f, t)
	}
	return f, nil
}

func newFormulaSetCommand(dataDir *string) *cobra.Command {
	var termSpecs []string

	cmd := &cobra.Command{
		Use:   "set <account-id>",
		Short: "Make an account calculated with the given terms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			f, err := parseTerms(termSpecs)
			if err != nil {
				return err
			}

			absDir, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			setErr := st.SetFormula(id, f)
			logFormulaEdit(cmd, absDir, id, "set", setErr, fmt.Sprintf("%d terms", len(f)))
			if setErr != nil {
				return setErr
			}

			cmd.Printf("Account %d is now calculated (%d terms)\n", id, len(f))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&termSpecs, "term", nil, "term as kind:id:coefficient (repeatable)")
	_ = cmd.MarkFlagRequired("term")

	return cmd
}

func newFormulaClearCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <account-id>",
		Short: "Toggle an account back to manual entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}

			absDir, _, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			clearErr := st.ClearFormula(id)
			logFormulaEdit(cmd, absDir, id, "clear", clearErr, "")
			if clearErr != nil {
				return clearErr
			}

			cmd.Printf("Account %d is now manual\n", id)
			return nil
		},
	}
}

func newFormulaCheckCommand(dataDir *string) *cobra.Command {
	var termSpecs []string

	cmd := &cobra.Command{
		Use:   "check <account-id>",
		Short: "Dry-run a formula against the current data without saving",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			f, err := parseTerms(termSpecs)
			if err != nil {
				return err
			}

			_, cfg, st, err := openEnv(*dataDir)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.Snapshot()
			if err != nil {
				return err
			}

			if err := formula.CheckFormula(id, f, snap, cfg.Policy.StrictReferences); err != nil {
				cmd.Printf("REJECTED: %v\n", err)
				return nil
			}
			res, err := formula.Validate(id, f, snap)
			if err != nil {
				return err
			}
			if res.HasCycle {
				cmd.Printf("REJECTED: %s\n", res.Message)
				return nil
			}

			cmd.Printf("OK: would evaluate to %s\n", formula.Evaluate(f, snap).StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&termSpecs, "term", nil, "term as kind:id:coefficient (repeatable)")
	_ = cmd.MarkFlagRequired("term")

	return cmd
}

// logFormulaEdit appends an audit row for a formula change. Audit failures
// are reported but never mask the edit's own outcome.
func logFormulaEdit(cmd *cobra.Command, dataDir string, accountID int, action string, editErr error, detail string) {
	outcome := auditlog.OutcomeOK
	message := detail
	if editErr != nil {
		message = editErr.Error()
		var cycle *formula.CycleError
		var invalid *formula.InvalidFormulaError
		switch {
		case errors.As(editErr, &cycle):
			outcome = auditlog.OutcomeCycle
		case errors.As(editErr, &invalid):
			outcome = auditlog.OutcomeInvalid
		default:
			return // store/IO failures are not formula decisions
		}
	}

	err := auditlog.Append(dataDir, []auditlog.Entry{{
		Timestamp: time.Now().UTC(),
		AccountID: accountID,
		Action:    action,
		Outcome:   outcome,
		Message:   message,
	}})
	if err != nil {
		cmd.PrintErrf("warning: audit log write failed: %v\n", err)
	}
}
