package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/spf13/cobra"
)

// NewBreakpointsCmd creates the breakpoints command.
func NewBreakpointsCmd() *cobra.Command {
	var pollutant string

	cmd := &cobra.Command{
		Use:   "breakpoints",
		Short: "Print the EPA breakpoint table for a pollutant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var tbl aqi.Table
			switch pollutant {
			case "pm25":
				tbl = aqi.PM25
			case "pm10":
				tbl = aqi.PM10
			default:
				return fmt.Errorf("unknown pollutant %q: want pm25 or pm10", pollutant)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "C_LO\tC_HI\tI_LO\tI_HI\tCATEGORY")
			for _, b := range tbl.Bands() {
				cat, _ := aqi.Classify(b.IHi)
				fmt.Fprintf(tw, "%g\t%g\t%g\t%g\t%s\n", b.CLo, b.CHi, b.ILo, b.IHi, cat.Label())
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&pollutant, "pollutant", "p", "pm25", "pollutant table: pm25 or pm10")

	return cmd
}
