package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/report"
)

var errValidation = errors.New("validation failed")

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	checks int
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) check(err error) {
	p.checks++
	if err != nil {
		p.errorf("%v", err)
	}
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every report, stats and archive file under the data root parses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.wire(nil)
			return a.validate(cmd.OutOrStdout())
		},
	}
}

func (a *app) validate(out io.Writer) error {
	fmt.Fprintf(out, "=== Report Archive Validation: %s ===\n\n", a.paths.Root())

	countries, err := a.paths.Countries()
	if err != nil {
		return fmt.Errorf("list countries: %w", err)
	}

	regions := make(map[string][]string, len(countries))
	for _, c := range countries {
		names, err := a.paths.Regions(c)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("list regions of %s: %w", c, err)
		}
		regions[c] = names
	}

	phases := []*phase{
		a.validateArchive(),
		a.validateCountryReports(countries),
		a.validateRegionReports(countries, regions),
		a.validateStats(countries, regions),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-24s %4d checks  %s\n", p.name, p.checks, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if !allPassed {
		fmt.Fprintln(out, "\nValidation FAILED.")
		return errValidation
	}
	fmt.Fprintln(out, "\nAll validations passed.")
	return nil
}

func (a *app) validateArchive() *phase {
	p := &phase{name: "daily archive"}
	span, err := a.dates.Available()
	p.check(err)
	if err == nil && span.Last.Before(span.First) {
		p.errorf("archive span %s..%s is empty", domain.FormatDay(span.First), domain.FormatDay(span.Last))
	}
	return p
}

func (a *app) validateCountryReports(countries []string) *phase {
	p := &phase{name: "country reports"}
	for _, c := range countries {
		_, err := a.loader.LoadCountry(c, report.Indexed)
		p.check(err)
	}
	return p
}

func (a *app) validateRegionReports(countries []string, regions map[string][]string) *phase {
	p := &phase{name: "region reports"}
	for _, c := range countries {
		for _, r := range regions[c] {
			_, err := a.loader.LoadRegion(c, r, report.Indexed)
			p.check(err)
		}
	}
	return p
}

// validateStats parses the country table and the region table of every
// country that has region reports, and checks each reported entity has a
// population row.
func (a *app) validateStats(countries []string, regions map[string][]string) *phase {
	p := &phase{name: "stats files"}

	table, err := a.stats.Countries()
	p.check(err)
	if err == nil {
		for _, c := range countries {
			_, err := table.Get(c)
			p.check(err)
		}
	}

	for _, c := range countries {
		if len(regions[c]) == 0 {
			continue
		}
		table, err := a.stats.Regions(c)
		p.check(err)
		if err != nil {
			continue
		}
		for _, r := range regions[c] {
			_, err := table.Get(r)
			p.check(err)
		}
	}
	return p
}
