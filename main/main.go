// Command protomuxd is a thin demo daemon: it loads a YAML protocol-list
// configuration, listens on a TCP address, and for each connection runs the
// protomux core to pick a backend and splice the connection through.
//
// Its flag-parsing/error-handling shape mirrors the teacher's main/main.go
// (zflags, fall through to log.Fatal except on --help), simplified to a
// single flat options struct since protomuxd has one job rather than a
// per-module command tree.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/ajholland/zflags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/sslh-go/protomux"
	"github.com/sslh-go/protomux/config"
	"github.com/sslh-go/protomux/metrics"
	_ "github.com/sslh-go/protomux/probes"
	_ "github.com/sslh-go/protomux/tls"
)

type options struct {
	ConfigPath    string `short:"c" long:"config" description:"Path to the protocol-list YAML configuration" required:"true"`
	Listen        string `short:"l" long:"listen" description:"Address to listen on" default:":8443"`
	MetricsAddr   string `long:"metrics-addr" description:"Address to serve Prometheus metrics on; empty disables"`
	Verbose       bool   `short:"v" long:"verbose" description:"Enable debug-level probe decision logging"`
	ProxyProtocol bool   `long:"proxy-protocol" description:"Accept an optional PROXY protocol v1/v2 header before protocol detection"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			log.Fatal(err.Error())
		} else {
			log.Fatal(err.Error())
		}
	}

	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		log.Fatalf("loading config: %s", err.Error())
	}
	if opts.Verbose && cfg.Verbose == 0 {
		cfg.Verbose = 1
	}

	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		log.Fatalf("listening on %s: %s", opts.Listen, err.Error())
	}

	decisions := metrics.NewDecisions()
	if err := decisions.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("registering metrics: %s", err.Error())
	}
	if opts.MetricsAddr != "" {
		go serveMetrics(opts.MetricsAddr)
	}

	srv := &protomux.Server{
		Listener:           ln,
		Config:             cfg,
		Metrics:            decisions,
		AllowProxyProtocol: opts.ProxyProtocol,
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("protomux: shutting down")
		cancel()
		ln.Close()
	}()

	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("serve: %s", err.Error())
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.WithField("addr", addr).Info("protomux: serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Warn("protomux: metrics server stopped")
	}
}
