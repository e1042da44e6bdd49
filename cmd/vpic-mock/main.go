// Command vpic-mock serves a fixed make/model catalog in the shape of the
// NHTSA vPIC GetModelsForMake endpoint, for running the service offline.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Clark-Hu/car-ratings/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		port    string
		data    string
		logReqs bool
	)

	cmd := &cobra.Command{
		Use:   "vpic-mock",
		Short: "Local stand-in for the NHTSA vPIC models endpoint",
		Long: `vpic-mock answers GET /vehicles/GetModelsForMake/{make}?format=json from a JSON
file mapping each make to its model names. Point VPIC_URL at http://localhost:<port>.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := loadCatalog(data)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{Level: "info", Format: "console"})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			handler := newHandler(c, logger, logReqs)

			addr := ":" + port
			logger.Info("mock vpic listening", zap.String("addr", addr), zap.Int("makes", len(c)))
			if err := http.ListenAndServe(addr, handler); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "9099", "port to listen on")
	cmd.Flags().StringVar(&data, "data", "testdata/vpic-mock.json", "path to mock data file")
	cmd.Flags().BoolVar(&logReqs, "log", false, "enable request logging")
	return cmd
}
