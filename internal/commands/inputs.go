package enginebench

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/mwiater/enginebench/internal/appconfig"
	"github.com/mwiater/enginebench/internal/inputs"
)

// inputsCmd prints one generated input bundle.
var inputsCmd = &cobra.Command{
	Use:   "inputs",
	Short: "Generate one synthetic input and print its fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			d := appconfig.Defaults()
			cfg = &d
		}
		opts, err := cfg.InputOptions()
		if err != nil {
			return err
		}
		tensors, arrays, err := inputs.Generate(opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, name := range tensors.Names() {
			tensor, _ := tensors.Get(name)
			arr, _ := arrays.Get(name)
			fmt.Fprintf(out, "%s shape=%v device=%s\n", name, tensor.Shape, tensor.Device)
			fmt.Fprintf(out, "%v\n\n", mat.Formatted(arr, mat.Squeeze()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inputsCmd)
}
