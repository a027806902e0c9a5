package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newInfoCommand(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info <image>",
		Short: "Print the dimensions and format of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := g.engine()
			defer eng.Close()

			meta, err := eng.NewSession().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			}
			_, err = printer.Fprintf(out, "%s: %s, %s, %d bytes\n", meta.Path, meta.Format, dims(meta.Width, meta.Height), meta.ByteSize)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print metadata as JSON")
	return cmd
}
