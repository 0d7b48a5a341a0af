package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/recera/jsxlite/cmd/jsxlite/internal/server"
	"github.com/recera/jsxlite/pkg/compiler"
)

func newServeCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the compile server",
		Long: `Serves compile requests for editors and playgrounds:

  /ws        websocket; send {"type":"COMPILE","code":"...","target":"vue"}
  /compile   POST the same JSON, receive the reply as JSON
  /targets   list the available targets`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(false)
			if err != nil {
				return err
			}
			if host != "" {
				p.cfg.Serve.Host = host
			}
			if port != 0 {
				p.cfg.Serve.Port = port
			}

			s := server.New(compiler.New(p.cfg.CompilerOptions()))
			return runServer(cmd.Context(), p.cfg.Addr(), s.Handler())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host to bind to (default from jsxlite.yaml)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from jsxlite.yaml)")
	return cmd
}

func runServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("🛑 Shutting down compile server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("✨ Compile server running at http://%s (websocket at ws://%s/ws)", addr, addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("compile server: %w", err)
	}
	return nil
}
