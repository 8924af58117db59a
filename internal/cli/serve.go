package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored analyses over a read-only HTTP API",
	Long: `Serve exposes:
  GET /health
  GET /analyses[?category=...]
  GET /analyses/:postId
  GET /report/summary

Example:
  credence serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveAddr != "" {
		a.cfg.Server.Addr = serveAddr
	}

	return server.New(a.store, a.cfg.Server, a.log).Start(ctx)
}
