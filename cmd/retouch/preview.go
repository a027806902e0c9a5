package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/internal/image"
)

func newPreviewCommand(g *globals) *cobra.Command {
	var (
		opsPath   string
		outPath   string
		maxWidth  int
		maxHeight int
		asBase64  bool
	)
	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Render a downsampled preview of an operation list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := loadScript(opsPath)
			if err != nil {
				return err
			}

			var extra []retouch.Option
			if outPath != "" {
				format, err := image.FormatFromPath(outPath)
				if err != nil {
					return err
				}
				extra = append(extra, retouch.WithPreviewFormat(format, g.cfg.PreviewQuality))
			}
			eng := g.engine(extra...)
			defer eng.Close()

			s := eng.NewSession()
			if _, err := s.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			pc := g.cfg.PreviewConstraints()
			if cmd.Flags().Changed("max-width") {
				pc.MaxWidth = maxWidth
			}
			if cmd.Flags().Changed("max-height") {
				pc.MaxHeight = maxHeight
			}
			res, err := s.Preview(cmd.Context(), ops, pc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case outPath != "":
				if err := os.WriteFile(outPath, res.Encoded, 0o644); err != nil {
					return fmt.Errorf("write preview: %w", err)
				}
				_, err = printer.Fprintf(out, "%s: %s, %s, %d bytes\n", outPath, res.Format, dims(res.Width, res.Height), len(res.Encoded))
			case asBase64:
				_, err = fmt.Fprintln(out, res.Data)
			default:
				_, err = printer.Fprintf(out, "preview %s (%d operations)\n", dims(res.Width, res.Height), len(ops))
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&opsPath, "operations", "o", "", "YAML or JSON operation list")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the preview to this file; the extension selects the format")
	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "Maximum preview width (0 = unbounded)")
	cmd.Flags().IntVar(&maxHeight, "max-height", 0, "Maximum preview height (0 = unbounded)")
	cmd.Flags().BoolVar(&asBase64, "base64", false, "Print the preview as a data URL")
	cmd.MarkFlagsMutuallyExclusive("out", "base64")
	return cmd
}
