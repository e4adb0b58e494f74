package main

import (
	"fmt"
	"strconv"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewComputeCmd creates the compute command.
func NewComputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compute <pm2.5>",
		Short: "Convert a PM2.5 concentration (µg/m³) to an AQI score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm25, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("pm2.5 must be a number: %q", args[0])
			}
			res, err := aqi.Evaluate(pm25)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "AQI %.0f  %s (%s)  mine safety: %s\n",
				res.Score, res.Label, res.Color, domain.SafetyStatusFor(pm25))
			return nil
		},
	}
}

// NewClassifyCmd creates the classify command.
func NewClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <aqi>",
		Short: "Show the category and color of an AQI score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("aqi must be a number: %q", args[0])
			}
			res := aqi.NewResult(score)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", res.Label, res.Category, res.Color)
			return nil
		},
	}
}
