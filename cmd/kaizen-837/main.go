package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Softsensor-org/Kaizen/internal/codes"
	"github.com/Softsensor-org/Kaizen/internal/config"
	"github.com/Softsensor-org/Kaizen/internal/server"
	"github.com/Softsensor-org/Kaizen/pkg/nemt837"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kaizen-837",
		Short: "Convert NEMT claim records into X12 837P interchanges",
	}

	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newPayersCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func loadPipelineConfig(payerPreset string, pretty bool) (nemt837.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nemt837.Config{}, err
	}
	pc := cfg.Pipeline()
	if payerPreset != "" {
		pc.PayerPreset = payerPreset
	}
	pc.Pretty = pretty
	return pc, nil
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newConvertCmd() *cobra.Command {
	var (
		inputFile   string
		outputFile  string
		payerPreset string
		pretty      bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a single claim record JSON into an 837P interchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(true)

			data, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("reading claim: %w", err)
			}
			pc, err := loadPipelineConfig(payerPreset, pretty)
			if err != nil {
				return err
			}

			res, err := nemt837.BuildJSON(data, pc)
			if err != nil {
				return fmt.Errorf("building interchange: %w", err)
			}

			fmt.Fprintln(os.Stderr, res.PreReport.String())
			if res.ComplianceReport != nil {
				fmt.Fprintln(os.Stderr, res.ComplianceReport.String())
			}
			if res.PayerReport != nil {
				fmt.Fprintln(os.Stderr, res.PayerReport.String())
			}

			if res.EDI == nil {
				logger.Error().Msg("claim failed pre-submission validation; no interchange emitted")
				return fmt.Errorf("claim rejected")
			}
			if err := writeOutput(outputFile, res.EDI); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			logger.Info().
				Str("output", outputFile).
				Int("bytes", len(res.EDI)).
				Bool("valid", res.IsValid()).
				Msg("interchange written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Claim record JSON file")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "-", "Output file path (use '-' for stdout)")
	cmd.Flags().StringVar(&payerPreset, "payer", "", "Payer preset key (e.g. UHC_CS)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Break lines after each segment terminator")
	cmd.MarkFlagRequired("input")

	return cmd
}

func newBatchCmd() *cobra.Command {
	var (
		inputFile   string
		outputFile  string
		payerPreset string
		stateCode   string
		sequence    int
		noProgress  bool
		pretty      bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Group trip records into claims and emit one shared interchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(true)

			data, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("reading trips: %w", err)
			}
			pc, err := loadPipelineConfig(payerPreset, pretty)
			if err != nil {
				return err
			}
			if !noProgress {
				pc.Progress = newMPBProgress()
			}

			start := time.Now()
			res, err := nemt837.BuildBatchJSON(data, pc)
			if err != nil {
				return fmt.Errorf("processing batch: %w", err)
			}

			fmt.Fprintln(os.Stderr, res.BatchReport.String())
			for _, oc := range res.Claims {
				if oc.Excluded {
					fmt.Fprintln(os.Stderr, oc.PreReport.String())
					if oc.Err != nil {
						fmt.Fprintf(os.Stderr, "claim %s: %v\n", oc.ClmNumber, oc.Err)
					}
				}
			}

			if res.EDI == nil {
				logger.Error().Msg("no claim survived validation; no interchange emitted")
				return fmt.Errorf("batch rejected")
			}

			out := outputFile
			if out == "" {
				out = nemt837.Filename(stateCode, time.Now(), sequence, pc.UsageIndicator != "P")
			}
			if err := writeOutput(out, res.EDI); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			emitted := 0
			for _, oc := range res.Claims {
				if !oc.Excluded {
					emitted++
				}
			}
			logger.Info().
				Str("run_id", res.RunID).
				Str("output", out).
				Int("claims_emitted", emitted).
				Int("claims_excluded", len(res.Claims)-emitted).
				Dur("elapsed", time.Since(start)).
				Msg("batch complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Trip records JSON file")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default: canonical submission name)")
	cmd.Flags().StringVar(&payerPreset, "payer", "", "Payer preset key (e.g. UHC_CS)")
	cmd.Flags().StringVar(&stateCode, "state", "KY", "State code for the canonical file name")
	cmd.Flags().IntVar(&sequence, "sequence", 1, "Sequence number for the canonical file name")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bars")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Break lines after each segment terminator")
	cmd.MarkFlagRequired("input")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run enrichment and pre-submission validation without emitting EDI",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("reading claim: %w", err)
			}
			res, err := nemt837.ValidateJSON(data)
			if err != nil {
				return err
			}
			fmt.Println(res.String())
			if !res.IsValid() {
				return fmt.Errorf("claim rejected")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Claim record JSON file")
	cmd.MarkFlagRequired("input")

	return cmd
}

func newPayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payers",
		Short: "List known payer presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range codes.PayerKeys() {
				preset, _ := codes.Payer(key)
				fmt.Printf("%-10s %-10s %s\n", key, preset.PayerID, preset.PayerName)
			}
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP upload façade",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.IsDev())
			srv := server.New(cfg.Pipeline(), logger)
			logger.Info().Str("port", cfg.Port).Msg("listening")
			return srv.Start(":" + cfg.Port)
		},
	}
}
