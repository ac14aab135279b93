// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/luxfi/mesh"
	"github.com/luxfi/mesh/config"
	mlog "github.com/luxfi/mesh/log"
)

var rootCmd = &cobra.Command{
	Use:   "node",
	Short: "Run or inspect a mesh overlay node",
	Long: `node drives a single overlay participant: its membership state,
elder committee signing, and router. It does not ship a production
network transport of its own (that boundary belongs to the host
embedding this module), so "run" wires a logging stand-in transport
suitable for local inspection, not multi-host operation.`,
}

func main() {
	rootCmd.AddCommand(checkCmd(), runCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configFlags(cmd *cobra.Command) func() config.Config {
	cmd.Flags().String("ip", "127.0.0.1", "listening address")
	cmd.Flags().Uint16("port", 9000, "listening port")
	cmd.Flags().Int("elder-size", 7, "target elder committee size")
	cmd.Flags().Uint8("min-age", 4, "age a brand new node is admitted at")
	cmd.Flags().Int("split-threshold", 8, "adult count per branch that triggers a split")
	cmd.Flags().Duration("accumulation-timeout", 120*time.Second, "signature accumulator hold time")
	cmd.Flags().Duration("join-timeout", 60*time.Second, "bootstrap-to-join attempt budget")
	cmd.Flags().Duration("accept-timeout", 90*time.Second, "resource-proof round budget")
	cmd.Flags().Bool("first", false, "create the genesis section instead of bootstrapping")
	cmd.Flags().StringSlice("contact", nil, "bootstrap contact address, repeatable")

	return func() config.Config {
		f := cmd.Flags()
		ip, _ := f.GetString("ip")
		port, _ := f.GetUint16("port")
		elderSize, _ := f.GetInt("elder-size")
		minAge, _ := f.GetUint8("min-age")
		splitThreshold, _ := f.GetInt("split-threshold")
		accTimeout, _ := f.GetDuration("accumulation-timeout")
		joinTimeout, _ := f.GetDuration("join-timeout")
		acceptTimeout, _ := f.GetDuration("accept-timeout")
		first, _ := f.GetBool("first")
		contacts, _ := f.GetStringSlice("contact")

		return config.Config{
			Network: config.NetworkParams{
				ElderSize:           elderSize,
				MinAge:              minAge,
				SplitThreshold:      splitThreshold,
				AccumulationTimeout: accTimeout,
				JoinTimeout:         joinTimeout,
				TimeoutAccept:       acceptTimeout,
			},
			Transport: config.Transport{IP: ip, Port: port},
			First:     first,
			Contacts:  contacts,
		}
	}
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a node configuration without starting it",
	}
	getCfg := configFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := getCfg()
		if err := cfg.Validate(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "configuration OK")
		return nil
	}
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a node and serve its health and metrics endpoints",
	}
	getCfg := configFlags(cmd)
	cmd.Flags().String("metrics-addr", ":9090", "address to serve /metrics and /healthz on")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := getCfg()
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		logger := mlog.NoOp()
		reg := prometheus.NewRegistry()
		transport := newLoggingTransport(logger)

		n, events, err := mesh.New(cfg, transport, reg, logger)
		if err != nil {
			return fmt.Errorf("construct node: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		go n.Run(ctx)
		go logEvents(cmd, events)
		go serveMetrics(n, reg, metricsAddr)

		fmt.Fprintf(cmd.OutOrStdout(), "node %s listening at %s, elder=%v\n", n.OurName(), n.OurConnectionInfo(), n.IsElder())
		<-ctx.Done()
		return nil
	}
	return cmd
}

func logEvents(cmd *cobra.Command, events mesh.EventStream) {
	for ev := range events {
		fmt.Fprintf(cmd.OutOrStdout(), "event: %+v\n", ev)
	}
}

func serveMetrics(n *mesh.Node, reg *prometheus.Registry, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		allHealthy, results := n.Health().Check()
		if !allHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		for _, res := range results {
			fmt.Fprintf(w, "%s: healthy=%v (%s)\n", res.Name, res.Healthy, res.Detail)
		}
	})
	http.ListenAndServe(addr, mux)
}
