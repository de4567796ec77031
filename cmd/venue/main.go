package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"main/internal/ops"
	"main/internal/venue"
	"main/pkg/uds"
)

func main() {
	if err := run(); err != nil {
		log.Printf("venue: %v", err)
		os.Exit(1)
	}
}

func run() error {
	udsPathFlag := flag.String("uds-path", "/tmp/etf-venue.sock", "Unix socket path for binary sessions")
	httpAddrFlag := flag.String("http-addr", "", "HTTP listen address for websocket sessions (empty=disabled)")
	seedFlag := flag.Int64("seed", 0, "Market data seed (0=wall clock)")
	stepFlag := flag.Duration("step", 100*time.Millisecond, "Interval between generated book updates")
	configPath := flag.String("config", "", "Path to JSON config for instrument definitions")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	socketPath := strings.TrimSpace(*udsPathFlag)
	if socketPath == "" {
		return errors.New("missing socket path; use -uds-path")
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := venue.NewServer(venue.ServerConfig{
		Generator:    venue.NewGenerator(venue.GeneratorConfig{Seed: *seedFlag}),
		Account:      venue.NewAccount(loaded.Registry),
		Registry:     loaded.Registry,
		StepInterval: *stepFlag,
	})

	udsSrv, err := uds.NewServer(socketPath)
	if err != nil {
		return err
	}
	if err := udsSrv.Listen(); err != nil {
		return err
	}
	defer udsSrv.Close()
	log.Printf("venue uds listening: %s", socketPath)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Run(ctx)
	}()

	if *httpAddrFlag != "" {
		mux := http.NewServeMux()
		mux.Handle("/stream", server.WSHandler())
		httpSrv := &http.Server{Addr: *httpAddrFlag, Handler: mux}

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("venue websocket listening: %s/stream", *httpAddrFlag)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http serve: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
	}

	err = server.ServeUDS(ctx, udsSrv)
	wg.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
