// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Beacon CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beacon",
		Short: "Beacon - email/password authentication service",
		Long: `Beacon is an authentication service providing email/password
registration, session-based sign-in, and session introspection over HTTP.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
