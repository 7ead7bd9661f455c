package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/trip-export/internal/publish"
)

var exportCmd = &cobra.Command{
	Use:   "export <trip_id>",
	Short: "Build and publish the export for one trip",
	Long:  "Builds the JSON export for a trip and publishes it to the configured output. With --dry-run or --out the document is only rendered locally.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		out, _ := cmd.Flags().GetString("out")

		if dryRun || out != "" {
			exp, err := env.Exporter.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			body, err := publish.Render(exp)
			if err != nil {
				return err
			}
			if out == "" {
				return writeBody(cmd.OutOrStdout(), body)
			}
			return eris.Wrapf(os.WriteFile(out, append(body, '\n'), 0o644), "write %s", out)
		}

		res, err := env.Exporter.Run(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func writeBody(w io.Writer, body []byte) error {
	if _, err := w.Write(append(body, '\n')); err != nil {
		return eris.Wrap(err, "write export")
	}
	return nil
}

func init() {
	exportCmd.Flags().Bool("dry-run", false, "render the export to stdout without publishing")
	exportCmd.Flags().String("out", "", "write the rendered export to this file instead of publishing")
	rootCmd.AddCommand(exportCmd)
}
