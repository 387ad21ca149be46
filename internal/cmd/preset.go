package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/MeKo-Tech/fastnoise/internal/preset"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage stored shader presets",
}

var presetSaveCmd = &cobra.Command{
	Use:   "save NAME",
	Short: "Store the resolved shader parameters under NAME",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetSave,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored presets",
	Args:  cobra.NoArgs,
	RunE:  runPresetList,
}

var presetShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a preset as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetShow,
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetDelete,
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetSaveCmd, presetListCmd, presetShowCmd, presetDeleteCmd)

	addShaderFlags(presetSaveCmd)
}

func openPresets() (*preset.Store, error) {
	if logger == nil {
		initLogging()
	}
	return preset.Open(viper.GetString("preset-db"))
}

func runPresetSave(cmd *cobra.Command, args []string) error {
	values, err := shaderValues(cmd.Context(), cmd)
	if err != nil {
		return err
	}

	store, err := openPresets()
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.Save(cmd.Context(), args[0], values)
	if err != nil {
		return err
	}
	logger.Info("Preset saved", "name", p.Name, "id", p.ID, "params", p.Values.Summary())
	return nil
}

func runPresetList(cmd *cobra.Command, args []string) error {
	store, err := openPresets()
	if err != nil {
		return err
	}
	defer store.Close()

	presets, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCREATED\tPARAMS")
	for _, p := range presets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.CreatedAt.Format(time.RFC3339), p.Values.Summary())
	}
	return tw.Flush()
}

func runPresetShow(cmd *cobra.Command, args []string) error {
	store, err := openPresets()
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeValuesYAML(cmd.OutOrStdout(), p.Values)
}

func runPresetDelete(cmd *cobra.Command, args []string) error {
	store, err := openPresets()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	logger.Info("Preset deleted", "name", args[0])
	return nil
}
