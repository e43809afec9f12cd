package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sguter90/soilmaestro/pkg/models"
	"github.com/sguter90/soilmaestro/pkg/orchestrator"
	"github.com/spf13/cobra"
)

var (
	analyzeValues = make(map[string]*string)
	analyzeSchema string
	analyzeRender string
	analyzeJSON   bool
	analyzeHour   int
	analyzeDay    int
	analyzeMonth  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one soil reading",
	Long: `Classify one soil reading and print the improvement plan.

Every field of the selected schema is required:
  full:    --moisture --temperature --humidity --light --ph --nitrogen
           --phosphorus --potassium --conductivity
  reduced: --ph --nitrogen --phosphorus --potassium --moisture --contamination`,
	Example: `  soilmaestro analyze --moisture 35 --temperature 22 --humidity 60 --light 400 \
    --ph 6.5 --nitrogen 40 --phosphorus 30 --potassium 25 --conductivity 1.2`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	for _, name := range formFieldOrder() {
		f := models.SensorFieldRegistry[name]
		usage := f.Label
		if f.Unit != "" {
			usage += " (" + f.Unit + ")"
		}
		analyzeValues[name] = analyzeCmd.Flags().String(name, "", usage)
	}
	analyzeCmd.Flags().StringVar(&analyzeSchema, "schema", "", "form schema: full or reduced (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeRender, "render", defaultRender, renderModeHelp)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().IntVar(&analyzeHour, "hour", models.DefaultHour, "hour of data collection")
	analyzeCmd.Flags().IntVar(&analyzeDay, "day", models.DefaultDay, "day of data collection")
	analyzeCmd.Flags().IntVar(&analyzeMonth, "month", models.DefaultMonth, "month of data collection")
}

// formFieldOrder lists every known field, full schema first
func formFieldOrder() []string {
	names := models.SchemaFull.FieldNames()
	for _, name := range models.SchemaReduced.FieldNames() {
		if !models.SchemaFull.Has(name) {
			names = append(names, name)
		}
	}
	return names
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeSchema == "" {
		analyzeSchema = appConfig.Schema
	}
	schema, err := resolveSchema(analyzeSchema)
	if err != nil {
		return err
	}

	reading := models.NewSensorReading(schema)
	reading.Hour, reading.Day, reading.Month = analyzeHour, analyzeDay, analyzeMonth
	for name, value := range analyzeValues {
		if *value == "" {
			continue
		}
		if err := reading.Set(name, *value); err != nil {
			return err
		}
	}

	// validate before prompting for a credential
	if err := reading.Validate(); err != nil {
		return orchestrator.NewValidationError("please fill all the fields", err)
	}

	apiKey, err := resolveAPIKey(appConfig, true)
	if err != nil {
		return err
	}

	render := analyzeRender
	if analyzeJSON {
		render = "html"
	}
	format, err := narrativeFormatter(render, 80)
	if err != nil {
		return err
	}

	orch := orchestratorFactory(appConfig, apiKey, logger, orchestrator.WithFormatter(format))()
	report, submitErr := orch.Submit(cmd.Context(), reading)

	if analyzeJSON && report != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return submitErr
	}

	if report != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Soil Health: %s\n\n", report.Label)
		if report.HasNarrative() {
			fmt.Fprintln(cmd.OutOrStdout(), report.Narrative)
		}
	}
	if submitErr != nil && report != nil && report.Partial {
		fmt.Fprintln(os.Stderr, "The improvement plan could not be generated.")
	}
	return submitErr
}
