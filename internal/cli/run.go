package cli

import (
	"context"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/televisor/internal/errors"
	"github.com/rileyhilliard/televisor/internal/lifecycle"
	"github.com/rileyhilliard/televisor/internal/logger"
	"github.com/rileyhilliard/televisor/internal/televisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the terminal display",
	Long: `Start the full-screen televisor display.

The display connects to the Desktop backend, announces the process start,
and keeps the stopwatch, fruit card, and production bars up to date.
Losing terminal focus counts as going to the background, which sends the
process end; quitting does the same.

Keyboard shortcuts:
  r           Refresh the record now
  ?           Toggle help
  q / Ctrl+C  Quit

Examples:
  televisor
  televisor run --endpoint http://10.0.0.5:3000
  televisor run --log-file televisor.log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runCommand starts the Bubble Tea display.
func runCommand(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrConfig,
			"The terminal display needs a TTY",
			"Use 'televisor serve' on headless hosts")
	}

	if logFile != "" {
		f, err := tea.LogToFile(logFile, "televisor")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't open log file "+logFile,
				"Check the path and permissions")
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	applyColor(cfg)

	lg := logger.NewEnvLogger("[televisor]")

	client, err := dialBackend(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer client.Close()

	hub := lifecycle.NewHub()
	events := make(chan lifecycle.Event, eventBuffer)
	ctrl := newController(cfg, newService(client, cfg, lg), newFeed(cfg, lg), hub, lifecycle.ChannelSink(events, lg), lg)

	model := televisor.NewModel(televisor.Options{
		Events:      events,
		Transitions: hub,
		Refresh:     ctrl.Refresh,
		Endpoint:    cfg.Endpoint,
		Title:       cfg.Display.Title,
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)

	ctrl.Mount(context.WithoutCancel(ctx))
	_, err = p.Run()
	shutdown(hub, ctrl, lg)

	if err != nil && ctx.Err() != nil {
		// Interrupted by a signal.
		return nil
	}
	return err
}
