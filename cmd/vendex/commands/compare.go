package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/temcen/vendex/internal/scoring"
	"github.com/temcen/vendex/internal/validation"
	"github.com/temcen/vendex/pkg/models"
)

type compareOptions struct {
	input   string
	profile string
	format  string
	pretty  bool
}

func newCompareCommand(root *rootOptions) *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Score and rank the vendors in a comparison request",
		Long: `Reads a comparison request ({"vendors": [...], "requirements": {...}})
and prints the ranked result. Nothing is cached, stored or published.

Example:
  vendex compare --input bids.json --profile cost_focused --pretty`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "request file, or - for stdin")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "weight profile (overrides requirements.profile)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format: json or table")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runCompare(cmd *cobra.Command, root *rootOptions, opts *compareOptions) error {
	if opts.format != "json" && opts.format != "table" {
		return fmt.Errorf("unsupported format %q: must be json or table", opts.format)
	}

	data, err := readInput(cmd.InOrStdin(), opts.input)
	if err != nil {
		return err
	}

	req, err := decodeRequest(data)
	if err != nil {
		return err
	}
	if opts.profile != "" {
		req.Requirements.Profile = opts.profile
		req.Requirements.Weights = nil
	}

	engine, err := root.engine()
	if err != nil {
		return err
	}

	result, err := engine.Compare(req.Requirements, req.Vendors)
	if err != nil {
		var inputErr scoring.InputError
		if errors.As(err, &inputErr) {
			return fmt.Errorf("%s at %s: %w", inputErr.Code(), inputErr.Field(), err)
		}
		return err
	}

	if opts.format == "table" {
		return printResultTable(cmd.OutOrStdout(), result)
	}
	return printJSON(cmd.OutOrStdout(), result, opts.pretty)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// decodeRequest applies the same schema checks as the HTTP API.
func decodeRequest(data []byte) (*models.ComparisonRequest, error) {
	validator, err := validation.NewEmbeddedSchemaValidator()
	if err != nil {
		return nil, err
	}

	if result := validator.ValidateCompareRequest(data); !result.Valid {
		problems := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			problems = append(problems, e.Field+": "+e.Message)
		}
		return nil, fmt.Errorf("%s: %s", result.Code(), strings.Join(problems, "; "))
	}

	var req models.ComparisonRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode comparison request: %w", err)
	}
	return &req, nil
}

func printJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func printResultTable(w io.Writer, result *models.ComparisonResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Profile: %s\n\n", result.Profile)
	fmt.Fprintln(tw, "RANK\tVENDOR\tSCORE\tUNIT PRICE\tTOTAL COST\tLEAD TIME")
	for _, v := range result.Vendors {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\t%dd\n", v.Rank, v.Name, v.TotalScore, v.UnitPrice, v.TotalCost, v.LeadTimeDays)
	}

	s := result.SavingsAnalysis
	fmt.Fprintf(tw, "\nSavings vs highest bid:\t%.2f (%.2f%%)\n", s.SavingsVsMax.Amount, s.SavingsVsMax.Percentage)
	fmt.Fprintf(tw, "Savings vs average bid:\t%.2f (%.2f%%)\n", s.SavingsVsAvg.Amount, s.SavingsVsAvg.Percentage)
	if !s.TopIsCheapest {
		fmt.Fprintf(tw, "Premium vs cheapest bid:\t%.2f (%.2f%%)\n", s.PremiumVsCheapest.Amount, s.PremiumVsCheapest.Percentage)
	}

	fmt.Fprintln(tw)
	for _, r := range result.Recommendations {
		fmt.Fprintf(tw, "[%s] %s\n", r.Priority, r.Title)
		fmt.Fprintf(tw, "  %s\n", r.Description)
		if r.Reasoning != "" {
			fmt.Fprintf(tw, "  %s\n", r.Reasoning)
		}
	}

	return tw.Flush()
}
