package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/penwern/curate-sharepoint-uploader/internal/config"
	"github.com/penwern/curate-sharepoint-uploader/internal/curate"
	"github.com/penwern/curate-sharepoint-uploader/internal/graph"
	internalhttp "github.com/penwern/curate-sharepoint-uploader/internal/http"
	"github.com/penwern/curate-sharepoint-uploader/internal/models"
	"github.com/penwern/curate-sharepoint-uploader/internal/server"
	"github.com/penwern/curate-sharepoint-uploader/internal/services"
	"github.com/penwern/curate-sharepoint-uploader/internal/transfer"
)

func newServeCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload accepting service",
		Long: `Starts the HTTP service that accepts upload batches from the
SharePoint front end. Batches are acknowledged immediately and processed in
the background; transfer outcomes are written onto the source items as
preservation status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if listenAddr != "" {
				cfg.Server.ListenAddr = listenAddr
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (overrides config)")

	return cmd
}

// runServe wires the service together and blocks until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config) error {
	graphClient, err := graph.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to build Graph client: %w", err)
	}

	transferClient, err := internalhttp.CreateTransferClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to build transfer HTTP client: %w", err)
	}
	apiClient, err := internalhttp.ConfigureHTTPClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to build API HTTP client: %w", err)
	}

	engine := transfer.NewEngine(graphClient, transferClient)

	factory := func(ctx context.Context, details models.CurateDetails) (services.DestinationClient, error) {
		return curate.NewClient(ctx, details, cfg.Gateway, apiClient)
	}

	uploads := services.NewUploadService(graphClient, engine, factory)

	return server.New(cfg.Server, uploads).Run(ctx)
}
