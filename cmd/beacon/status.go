// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/beaconauth/beacon/internal/config"
)

// statusTimeout bounds each health probe request.
const statusTimeout = 2 * time.Second

// ServiceStatus holds the probed state of the running service.
type ServiceStatus struct {
	Addr    string `json:"addr"`
	Running bool   `json:"running"`
	Ready   bool   `json:"ready"`
	Error   string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	metricsAddr string
	jsonOutput  bool
}

// newStatusCmd creates the status subcommand with all flags configured.
func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of the running auth service",
		Long:  `Probe the service's health endpoints and report liveness and readiness.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	// Register flags
	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address to probe")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	status := probeService(cmd.Context(), cfg.metricsAddr)

	if cfg.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDR\tRUNNING\tREADY\tERROR")
	fmt.Fprintf(w, "%s\t%t\t%t\t%s\n", status.Addr, status.Running, status.Ready, status.Error)
	return w.Flush()
}

// probeService checks the liveness and readiness endpoints.
func probeService(ctx context.Context, addr string) ServiceStatus {
	status := ServiceStatus{Addr: addr}

	alive, err := probe(ctx, addr, "/healthz/liveness")
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Running = alive

	ready, err := probe(ctx, addr, "/healthz/readiness")
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Ready = ready

	return status
}

func probe(ctx context.Context, addr, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+path, nil)
	if err != nil {
		return false, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close() //nolint:errcheck

	return resp.StatusCode == http.StatusOK, nil
}
