package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewStationsCmd creates the stations command.
func NewStationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stations",
		Short: "List monitoring stations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stations, err := loadStations(cmd)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDISTRICT\tLAT\tLON")
			for _, st := range stations {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%.4f\n", st.ID, st.Name, st.District, st.Lat, st.Lon)
			}
			return tw.Flush()
		},
	}
}

func loadStations(cmd *cobra.Command) ([]domain.Station, error) {
	path, err := cmd.Flags().GetString("stations-file")
	if err != nil {
		return nil, err
	}
	return domain.LoadStations(path)
}
