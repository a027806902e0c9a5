package main

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/retouch"
)

func newExportCommand(g *globals) *cobra.Command {
	var (
		opsPath string
		outPath string
		format  string
		quality int
	)
	cmd := &cobra.Command{
		Use:   "export <image>",
		Short: "Render an operation list at full resolution and write it to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := loadScript(opsPath)
			if err != nil {
				return err
			}
			eng := g.engine()
			defer eng.Close()

			res, err := eng.Export(cmd.Context(), retouch.ExportRequest{
				OriginalPath: args[0],
				Operations:   ops,
				OutputPath:   outPath,
				Format:       format,
				Quality:      quality,
			})
			if err != nil {
				return err
			}
			_, err = printer.Fprintf(cmd.OutOrStdout(), "%s: %s, %s, %d bytes\n", res.Path, res.Format, dims(res.Width, res.Height), res.ByteSize)
			return err
		},
	}
	cmd.Flags().StringVarP(&opsPath, "operations", "o", "", "YAML or JSON operation list")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file")
	cmd.Flags().StringVar(&format, "format", "", "Output format: jpeg, png or webp (default: from the --out extension)")
	cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality 1-100 (default from configuration)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
