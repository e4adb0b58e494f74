package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the aqictl root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aqictl",
		Short: "Compute and inspect PM2.5 air quality for Jharkhand stations",
		Long: `aqictl converts PM2.5 concentrations to US EPA AQI scores, lists the
monitoring stations, and fetches live hourly data from open-meteo.

The compute, classify, stations and breakpoints commands never touch the network.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("stations-file", "", "YAML station catalogue (default: built-in Jharkhand stations)")

	cmd.AddCommand(NewComputeCmd())
	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewStationsCmd())
	cmd.AddCommand(NewBreakpointsCmd())
	cmd.AddCommand(NewFetchCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
