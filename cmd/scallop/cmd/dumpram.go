package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonfmir/scallop/internal/examples"
	"github.com/ramonfmir/scallop/internal/front"
	"github.com/ramonfmir/scallop/internal/front/analyzers"
	"github.com/ramonfmir/scallop/internal/ram"
)

var dumpRAMCmd = &cobra.Command{
	Use:   "dump-ram <example>",
	Short: "Compile a built-in example and print its lowered RAM IR as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  dumpRAM,
}

func init() {
	rootCmd.AddCommand(dumpRAMCmd)
}

func dumpRAM(_ *cobra.Command, args []string) error {
	program, err := examples.Lookup(args[0])
	if err != nil {
		return err
	}

	ctx, err := front.Compile(program, front.AnalyzerPasses{
		ConstantDecl: analyzers.ConstantDeclPass{},
		Aggregation:  analyzers.AggregationPass{},
		Normalize:    analyzers.NormalizePass{},
		Boundness:    analyzers.BoundnessPass{},
		TypeInfer:    analyzers.TypeInferencePass{},
	})
	if err != nil {
		return fmt.Errorf("compilation failed:\n%s", err)
	}
	ramProg, err := ram.LowerProgram(program, ctx)
	if err != nil {
		return fmt.Errorf("lowering failed: %w", err)
	}

	doc, err := ram.Dump(ramProg)
	if err != nil {
		return fmt.Errorf("dump failed: %w", err)
	}
	fmt.Println(doc)
	return nil
}
