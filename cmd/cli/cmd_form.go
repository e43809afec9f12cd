package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sguter90/soilmaestro/pkg/logging"
	"github.com/sguter90/soilmaestro/pkg/orchestrator"
	"github.com/sguter90/soilmaestro/pkg/rotator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	formSchema  string
	formRender  string
	formLogFile string
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Open the interactive soil reading form",
	Long: `Open an interactive form in the terminal. All fields are required; the
form shows the classification as soon as it arrives and the improvement
plan when it is ready.`,
	RunE: runForm,
}

func init() {
	rootCmd.AddCommand(formCmd)

	formCmd.Flags().StringVar(&formSchema, "schema", "", "form schema: full or reduced (default from config)")
	formCmd.Flags().StringVar(&formRender, "render", defaultRender, "narrative rendering: terminal, plain or glamour")
	formCmd.Flags().StringVar(&formLogFile, "log-file", "", "write logs to this file instead of discarding them")
}

func runForm(cmd *cobra.Command, args []string) error {
	if formSchema == "" {
		formSchema = appConfig.Schema
	}
	schema, err := resolveSchema(formSchema)
	if err != nil {
		return err
	}

	// log lines on stderr would corrupt the screen
	formLogger := zap.NewNop()
	if formLogFile != "" {
		f, err := os.OpenFile(formLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		if formLogger, err = logging.NewWriter(f, appConfig.Log.Level); err != nil {
			return err
		}
	}

	apiKey, err := resolveAPIKey(appConfig, true)
	if err != nil {
		return err
	}

	format, err := narrativeFormatter(formRender, 80)
	if err != nil {
		return err
	}

	// canceled on exit so a late narrative is never applied
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	orch := orchestratorFactory(appConfig, apiKey, formLogger, orchestrator.WithFormatter(format))()
	rot := rotator.New(rotator.WithPeriod(appConfig.Rotator.Period), rotator.WithLogger(formLogger))

	p := tea.NewProgram(newFormModel(ctx, schema, orch, rot.Current()), tea.WithContext(ctx))

	rot.OnChange(func(index int, slogan string) {
		p.Send(sloganMsg{index: index, slogan: slogan})
	})
	orch.Subscribe(func(s orchestrator.Snapshot) {
		p.Send(snapshotMsg(s))
	})

	rot.Start()
	defer rot.Stop()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("form exited: %w", err)
	}
	return nil
}
