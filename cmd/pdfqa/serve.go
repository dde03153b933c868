package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pdf-qa-rag/internal/api"
	"pdf-qa-rag/internal/watcher"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr    string
		mcpAddr string
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the MCP tools",
		Long: `Starts the HTTP API (POST /upload, POST /ask, GET /documents, GET /sections)
and the MCP SSE server exposing the ask and list_sections tools.
With --watch, PDFs copied into the upload directory are ingested automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("mcp-addr") {
				cfg.Server.MCPAddr = mcpAddr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watcher.Enabled = watch
			}

			g, ctx := errgroup.WithContext(ctx)

			httpServer := api.NewServer(a.knowledge, cfg.Server.UploadDir, int64(cfg.Server.MaxUploadMB)<<20, a.logger)
			g.Go(func() error {
				return httpServer.ListenAndServe(ctx, cfg.Server.Addr)
			})

			if cfg.Server.MCPAddr != "" {
				mcpServer := api.NewMCPServer(a.knowledge, a.logger)
				g.Go(func() error {
					return api.ServeMCP(ctx, mcpServer, cfg.Server.MCPAddr, a.logger)
				})
			}

			if cfg.Watcher.Enabled {
				w := watcher.New(cfg.Server.UploadDir,
					time.Duration(cfg.Watcher.DebounceMs)*time.Millisecond, a.knowledge, a.logger)
				g.Go(func() error {
					if err := w.Sync(ctx); err != nil {
						a.logger.Warn("initial sync failed", zap.Error(err))
					}
					return w.Watch(ctx)
				})
			}

			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	cmd.Flags().StringVar(&mcpAddr, "mcp-addr", "", "MCP SSE listen address, empty to disable (overrides server.mcp_addr)")
	cmd.Flags().BoolVar(&watch, "watch", false, "ingest PDFs copied into the upload directory")
	return cmd
}
