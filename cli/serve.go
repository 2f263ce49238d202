package cli

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lattesdoc/server"
	"lattesdoc/store"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
		rf   renderFlags
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored documents over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := getSettings(cmd)
			if cmd.Flags().Changed("host") {
				s.Host = host
			}
			if cmd.Flags().Changed("port") {
				s.Port = port
			}
			engine, err := rf.build(cmd, s)
			if err != nil {
				return err
			}

			st, err := openStore(s)
			if err != nil {
				return err
			}
			defer st.Close()

			actualPort := s.Port
			if actualPort == 0 {
				actualPort = findAvailablePort(s.Host)
				if actualPort == 0 {
					return fmt.Errorf("failed to find an available port")
				}
			}

			cfg := server.Config{
				Host:             s.Host,
				Port:             actualPort,
				EnableLiveReload: s.LiveReload,
				ExportPrefixes:   s.ExportPrefixes,
			}
			if ds, ok := st.(*store.DirStore); ok {
				cfg.WatchDir = ds.Root()
			}
			srv := server.NewServer(cfg, st, engine)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				<-sigChan
				log.Println("\nShutting down server...")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Stop(ctx); err != nil {
					log.Printf("Shutdown error: %v", err)
				}
			}()

			log.Printf("Serving %s store at %s", s.StoreBackend, s.StorePath())
			log.Printf("Server running at http://%s:%d", s.Host, actualPort)
			log.Println("Press Ctrl+C to stop")

			return srv.Start()
		},
	}
	cmd.Flags().StringVar(&host, "host", "localhost", "host to bind to")
	cmd.Flags().IntVar(&port, "port", 0, "port to bind to (0 for auto-selection)")
	rf.register(cmd)
	return cmd
}

// findAvailablePort scans for an available port starting from 8080
func findAvailablePort(host string) int {
	for port := 8080; port < 65535; port++ {
		addr := fmt.Sprintf("%s:%d", host, port)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return 0
}
