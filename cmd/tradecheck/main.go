package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/vedu111/gorechitee/app"
	"github.com/vedu111/gorechitee/config"
	"github.com/vedu111/gorechitee/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// errRejected makes the process exit non-zero without printing usage
var errRejected = errors.New("shipment rejected")

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradecheck",
		Short: "Export/import compliance checks from the command line",
		Long: `tradecheck evaluates shipments and single items against the configured
jurisdictions using the same reference data and settings as the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(shipmentCmd())
	rootCmd.AddCommand(classifyCmd())
	return rootCmd
}

func loadEngine(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, _ := cmd.Flags().GetString("log-level")
	logger, err := app.NewLogger(level)
	if err != nil {
		return nil, err
	}

	return app.New(cmd.Context(), cfg, logger)
}

func shipmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shipment <file.json>",
		Short: "Evaluate every item of a shipment file",
		Long: `Evaluate a shipment document and print the compliance report as JSON.

Exits with status 1 when any item is rejected.

Example:
  tradecheck shipment shipment.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read shipment: %w", err)
			}

			var shipment models.Shipment
			if err := json.Unmarshal(data, &shipment); err != nil {
				return fmt.Errorf("failed to parse shipment: %w", err)
			}

			engine, err := loadEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()

			result, err := engine.Shipments.EvaluateShipment(cmd.Context(), shipment)
			if err != nil {
				return err
			}

			if err := printJSON(cmd, result); err != nil {
				return err
			}
			if !result.Status {
				return errRejected
			}
			return nil
		},
	}
}

type classifyOutput struct {
	Jurisdiction string            `json:"jurisdiction"`
	Resolution   models.Resolution `json:"resolution"`
	Verdict      *models.Verdict   `json:"verdict,omitempty"`
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Resolve an item description to an HS code and evaluate it",
		Long: `Resolve a free-text item description against one jurisdiction's schedule
and, when a code is found, evaluate it for export.

Example:
  tradecheck classify "cotton t-shirt" --jurisdiction INDIA
  tradecheck classify "widget" --jurisdiction USA --hs-code 61091000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("jurisdiction")
			hsCode, _ := cmd.Flags().GetString("hs-code")

			engine, err := loadEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()

			j, err := engine.Registry.Lookup(name)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			res, err := j.ResolveCode(ctx, args[0], hsCode)
			if err != nil {
				return err
			}
			out := classifyOutput{Jurisdiction: j.Name(), Resolution: res}

			if res.Resolved() {
				verdict, err := j.EvaluateExport(ctx, models.ItemQuery{HSCode: res.Code, ItemName: args[0]})
				if err != nil {
					return err
				}
				out.Verdict = &verdict
			}
			return printJSON(cmd, out)
		},
	}

	cmd.Flags().StringP("jurisdiction", "j", "INDIA", "jurisdiction to classify against")
	cmd.Flags().String("hs-code", "", "known HS code, used verbatim")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
