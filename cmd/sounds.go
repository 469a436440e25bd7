package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/model"
)

// soundsCmd lists the sound catalog.
var soundsCmd = &cobra.Command{
	Use:         "sounds",
	Short:       "List alarm sounds",
	Long:        `List the sounds an alarm can use. The default is marked with *.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStore: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runtimeOptions()
		if err != nil {
			return err
		}
		f := newFormatter(opts)
		if f.IsJSON() {
			return f.PrintJSON(map[string]interface{}{
				"default": model.DefaultSound,
				"sounds":  model.Sounds(),
			})
		}
		newCLI(f).PrintSounds(model.Sounds())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(soundsCmd)
}
