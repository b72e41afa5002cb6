package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/epi-report-service/internal/annotations"
	"github.com/couchcryptid/epi-report-service/internal/domain"
)

func newDatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "Print the date span covered by the daily archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.wire(nil)
			cal, err := a.dates.Calendar()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "first day:   %s\n", domain.FormatDay(cal.FirstDay))
			fmt.Fprintf(out, "last day:    %s\n", domain.FormatDay(cal.LastDay))
			fmt.Fprintf(out, "first week:  %s\n", domain.FormatDay(cal.FirstWeek))
			fmt.Fprintf(out, "last week:   %s\n", domain.FormatDay(cal.LastWeek))
			fmt.Fprintf(out, "days:        %d\n", len(cal.Days()))

			keyDates, err := a.keyDates()
			if err != nil {
				return err
			}
			for _, k := range annotations.Within(keyDates, domain.DateSpan{First: cal.FirstDay, Last: cal.LastDay}) {
				if k.IsSpan() {
					fmt.Fprintf(out, "key date:    %s..%s %s\n", domain.FormatDay(k.Date), domain.FormatDay(k.End()), k.Label)
					continue
				}
				fmt.Fprintf(out, "key date:    %s %s\n", domain.FormatDay(k.Date), k.Label)
			}
			return nil
		},
	}
}
