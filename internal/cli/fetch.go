package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/televisor/internal/errors"
	"github.com/rileyhilliard/televisor/internal/logger"
	"github.com/rileyhilliard/televisor/internal/remote"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the current record once and print it as JSON",
	Long: `Connect to the backend, fetch the televisor record and resolve its
site against the current lots, then print both results as JSON.

Useful for checking the backend from a shell without starting the display.
No process start or end is announced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchCommand(cmd.Context(), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

// fetchReport is what the fetch command prints.
type fetchReport struct {
	Record callReport  `json:"record"`
	Site   *callReport `json:"site,omitempty"`
}

type callReport struct {
	Status remote.Status `json:"status"`
	Value  any           `json:"value,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func reportOf[T any](r remote.Result[T]) callReport {
	rep := callReport{Status: r.Status, Error: r.Error()}
	if r.OK() {
		rep.Value = r.Value
	}
	return rep
}

func fetchCommand(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if logFile != "" {
		if err := logToFile(logFile); err != nil {
			return err
		}
	}

	lg := logger.NewEnvLogger("[televisor]")
	client, err := dialWithStatus(ctx, cfg, lg, os.Stderr)
	if err != nil {
		return err
	}
	defer client.Close()

	return runFetch(ctx, newService(client, cfg, lg), out)
}

// runFetch performs one primary fetch plus site resolution and writes the report.
func runFetch(ctx context.Context, svc *remote.Service, out io.Writer) error {
	primary := svc.FetchPrimary(ctx)
	report := fetchReport{Record: reportOf(primary)}

	if primary.OK() && primary.Value.Predio != "" {
		site := reportOf(svc.ResolveSite(ctx, primary.Value.Predio))
		report.Site = &site
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRemote,
			"Failed to encode the fetch result",
			"This shouldn't happen - please report this bug")
	}
	fmt.Fprintln(out, string(data))

	if !primary.OK() {
		return errors.WrapWithCode(primary.Err, errors.ErrRemote,
			fmt.Sprintf("%s returned %s", remote.ActionPrimaryRecord, primary.Status),
			"Check the backend logs, or raise request_timeout if it is slow")
	}
	return nil
}
