package cmd

import (
	"context"
	"io/fs"
	"os"
	"os/signal"

	"github.com/jackc/login-smoke/fixture"
	"github.com/jackc/login-smoke/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var shutdownSignals = []os.Signal{os.Interrupt}

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fixture pages over HTTP",

	Run: func(cmd *cobra.Command, args []string) {
		listenAddress, _ := cmd.Flags().GetString("listen-address")
		fixturesDir, _ := cmd.Flags().GetString("fixtures-dir")
		logFormat, _ := cmd.Flags().GetString("log-format")

		processCtx, processCancel := context.WithCancel(context.Background())
		defer processCancel()

		logger := setupLogger(logFormat)
		processCtx = logger.WithContext(processCtx)

		interruptChan := make(chan os.Signal, 1)
		signal.Notify(interruptChan, shutdownSignals...)
		go func() {
			s := <-interruptChan
			signal.Reset() // Only listen for one interrupt. If another interrupt signal is received allow it to terminate the program.
			zerolog.Ctx(processCtx).Info().Str("signal", s.String()).Msg("shutdown signal received")
			processCancel()
		}()

		var fixtures fs.FS = fixture.FS
		if fixturesDir != "" {
			fixtures = os.DirFS(fixturesDir)
		}

		server, err := server.NewServer(
			listenAddress,
			fixtures,
			zerolog.Ctx(processCtx),
		)
		if err != nil {
			zerolog.Ctx(processCtx).Fatal().Err(err).Msg("Could not create web server")
		}

		g, gctx := errgroup.WithContext(processCtx)
		g.Go(func() error {
			return server.Serve()
		})
		g.Go(func() error {
			<-gctx.Done()
			err := server.Shutdown(context.Background())
			if err != nil {
				zerolog.Ctx(processCtx).Error().Err(err).Msg("HTTP server failed to cleanly shutdown")
			}
			return nil
		})

		err = g.Wait()
		if err != nil {
			zerolog.Ctx(processCtx).Fatal().Err(err).Msg("HTTP server failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen-address", "l", "127.0.0.1:8080", "The address to listen on for HTTP requests.")
	serveCmd.Flags().String("fixtures-dir", "", "Serve fixtures from this directory instead of the embedded copies.")
	serveCmd.Flags().String("log-format", "json", "Log format (json or console)")
}
