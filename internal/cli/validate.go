package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// ValidationResult is the output of validate.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Stores []StoreSummary `json:"stores"`
}

// StoreSummary describes one validated store.
type StoreSummary struct {
	Name        string        `json:"name"`
	BatchMode   string        `json:"batch_mode"`
	BatchTimeMS int64         `json:"batch_time_ms"`
	Deeds       []DeedSummary `json:"deeds"`
}

// DeedSummary names one deed and its type.
type DeedSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a store definition file",
		Long: `Validate a store definition file against the schema and build every
deed without contacting any API.

Exit codes:
  0 - The file is valid
  1 - The file is invalid
  2 - The file does not exist`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts.formatter(cmd), args[0])
		},
	}
}

func runValidate(f *OutputFormatter, path string) error {
	defs, err := loadDefinitions(f, path)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: true}
	for _, def := range defs.Stores {
		f.VerboseLog("Validating store: %s", def.Name)
		cfg, err := def.Config()
		if err != nil {
			return f.Fail(ExitFailure, CodeLoad, "invalid definition file", err)
		}

		summary := StoreSummary{
			Name:        def.Name,
			BatchMode:   string(cfg.BatchMode),
			BatchTimeMS: cfg.BatchTime.Milliseconds(),
			Deeds:       make([]DeedSummary, 0, len(cfg.Deeds)),
		}
		for _, d := range cfg.Deeds {
			summary.Deeds = append(summary.Deeds, DeedSummary{Name: d.DeedName(), Type: string(d.DeedType())})
		}
		result.Stores = append(result.Stores, summary)
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s valid\n", path)
		for _, s := range result.Stores {
			timing := fmt.Sprintf("%dms", s.BatchTimeMS)
			if s.BatchTimeMS == 0 {
				timing = "batchless"
			}
			names := make([]string, len(s.Deeds))
			for i, d := range s.Deeds {
				names[i] = d.Name
			}
			fmt.Fprintf(w, "  %s (%s, %s): %s\n", s.Name, s.BatchMode, timing, strings.Join(names, ", "))
		}
	})
}
