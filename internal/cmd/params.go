package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the shader parameters",
	Long: `Params prints every shader parameter with its type, default and allowed
values. With --resolved it prints the values the other commands would use,
after applying the config file, --preset and --set.`,
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)

	paramsCmd.Flags().Bool("resolved", false, "Print the resolved parameter values as YAML")
	addShaderFlags(paramsCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	resolved, err := cmd.Flags().GetBool("resolved")
	if err != nil {
		return err
	}
	if !resolved {
		return writeParamTable(cmd.OutOrStdout())
	}

	values, err := shaderValues(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	return writeValuesYAML(cmd.OutOrStdout(), values)
}

func writeParamTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tDEFAULT\tVALUES\tDESCRIPTION")
	for _, d := range params.All() {
		typ := d.Type.String()
		if d.Linkable {
			typ += " (linkable)"
		}
		if d.ReadOnly {
			typ += " (read-only)"
		}
		def := fmt.Sprint(d.Default)
		if d.ReadOnly {
			def = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, typ, def, strings.Join(d.EnumNames, ", "), d.Description)
	}
	return tw.Flush()
}

func writeValuesYAML(w io.Writer, v params.Values) error {
	out, err := yaml.Marshal(v.Map())
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	_, err = w.Write(out)
	return err
}
