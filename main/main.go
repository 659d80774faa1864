// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ava-labs/ckbstd/examples"
	"github.com/ava-labs/ckbstd/simulator"
)

const (
	metricsPath     = "/ext/metrics"
	shutdownTimeout = 10 * time.Second
)

func main() {
	config, err := getConfig()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if config.Version {
		fmt.Printf("%s@%s\n", simulator.Name, simulator.Version)
		os.Exit(0)
	}

	log.Root().SetHandler(log.LvlFilterHandler(config.LogLevel, log.StreamHandler(os.Stderr, log.TerminalFormat())))

	registry := simulator.NewRegistry()
	if _, err := examples.Register(registry); err != nil {
		log.Error("couldn't register programs", "err", err)
		os.Exit(1)
	}

	if config.Fixture != "" {
		code, err := runFixture(config, registry)
		if err != nil {
			log.Error("run failed", "fixture", config.Fixture, "err", err)
			os.Exit(1)
		}
		os.Exit(int(uint8(code)))
	}

	if err := serve(config, registry); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
	log.Info("Terminated successfully.")
}

// runFixture runs one fixture and prints its result as JSON on stdout.
func runFixture(config Config, registry *simulator.Registry) (int8, error) {
	fixture, err := simulator.LoadFixture(config.Fixture)
	if err != nil {
		return 0, err
	}
	sim, err := simulator.New(fixture, registry, config.Simulator)
	if err != nil {
		return 0, err
	}
	defer sim.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	res, runErr := sim.Run(ctx)

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return 0, err
	}
	fmt.Println(string(out))
	return res.ExitCode, runErr
}

func serve(config Config, registry *simulator.Registry) error {
	registerer := prometheus.NewRegistry()
	simConfig := config.Simulator
	simConfig.Registerer = registerer
	service, err := simulator.NewService(registry, simConfig)
	if err != nil {
		return err
	}
	handler, err := simulator.NewHandler(service)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(simulator.Endpoint, handler)
	mux.Handle(metricsPath, promhttp.HandlerFor(registerer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              config.ListenAddress(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("serving", "address", srv.Addr, "rpc", simulator.Endpoint, "metrics", metricsPath)
		errs <- srv.ListenAndServe()
	}()

	// register signals to kill the application
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-signals:
		log.Info("shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
