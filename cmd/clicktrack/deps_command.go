package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clicktrack/internal/deps"
	"clicktrack/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools clicktrack shells out to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reqs := deps.Requirements(cfg.Tools.FFmpegBinary, cfg.Tools.FFprobeBinary, cfg.Video.Enabled)
			statuses := deps.Inspect(cmd.Context(), reqs)

			checks := preflight.RunAll(cfg)

			status := newStatusWriter(cmd.OutOrStdout())
			status.section("Tools")
			for _, st := range statuses {
				status.line(st.Name, dependencyKind(st), dependencyMessage(st))
			}
			status.section("Paths")
			for _, check := range checks {
				status.line(check.Name, checkKind(check), check.Detail)
			}

			var problems []string
			if missing := deps.Missing(statuses); len(missing) > 0 {
				problems = append(problems, "missing required tools: "+strings.Join(missing, ", "))
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				problems = append(problems, "failed checks: "+strings.Join(failed, ", "))
			}
			if len(problems) > 0 {
				return errors.New(strings.Join(problems, "; "))
			}
			return nil
		},
	}
}

func dependencyKind(st deps.Status) statusKind {
	switch {
	case st.Available:
		return statusOK
	case st.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func dependencyMessage(st deps.Status) string {
	if st.Available {
		if st.Version != "" {
			return fmt.Sprintf("%s (%s)", st.Command, st.Version)
		}
		return st.Command
	}
	detail := strings.TrimSpace(st.Detail)
	if detail == "" {
		detail = "not available"
	}
	if st.Optional {
		detail += "; optional"
	}
	return detail
}

func checkKind(check preflight.Result) statusKind {
	switch {
	case check.Passed:
		return statusOK
	case check.Optional:
		return statusWarn
	default:
		return statusError
	}
}
