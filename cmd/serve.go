package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/browser"
	"github.com/spigell/form-responder/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the form tools to an MCP client over stdio",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("no-browser", false, "serve without launching a browser; only query_resume will work")
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries the MCP stream.
	logger, config := setup("stderr")
	defer logger.Sync()

	r := loadResume(config, logger)

	var pages browser.PageProvider
	if noBrowser, _ := cmd.Flags().GetBool("no-browser"); !noBrowser {
		session, err := browser.Launch(ctx, config.Browser, logger)
		if err != nil {
			logger.Fatal("launching browser", zap.Error(err),
				zap.String("hint", "set browser.install to download the browser on first run"),
			)
		}
		defer func() {
			if err := session.Close(); err != nil {
				logger.Warn("closing browser", zap.Error(err))
			}
		}()
		pages = session
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: app, Version: version}, nil)
	tools.RegisterMCP(srv, tools.Assemble(pages, r, tools.Options{
		Elements: config.Elements,
		Logger:   logger,
	}))

	logger.Info("serving tools over stdio", zap.String("version", version))

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server stopped", zap.Error(err))
	}
}
