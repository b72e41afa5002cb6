package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/couchcryptid/epi-report-service/internal/aggregate"
	"github.com/couchcryptid/epi-report-service/internal/derive"
	"github.com/couchcryptid/epi-report-service/internal/domain"
)

var errBadParam = errors.New("bad parameter")

func badParam(name, format string, args ...any) error {
	return fmt.Errorf("%w %s: %s", errBadParam, name, fmt.Sprintf(format, args...))
}

type aggregateParams struct {
	scope  domain.Scope
	query  aggregate.Query
	form   aggregate.Form
	derive derive.Steps
	csv    bool
}

type reportParams struct {
	opts   reportOpts
	start  *time.Time
	derive derive.Steps
}

type reportOpts struct {
	raw     bool
	labeled bool
}

func parseAggregate(q url.Values) (aggregateParams, error) {
	p := aggregateParams{
		scope: domain.Scope{Country: q.Get("country")},
		query: aggregate.Query{
			Column:  q.Get("column"),
			Include: splitList(q["include"]),
			Exclude: splitList(q["exclude"]),
		},
		form: aggregate.FormWide,
	}

	if f := q.Get("form"); f != "" {
		p.form = aggregate.Form(f)
		if !lo.Contains([]aggregate.Form{aggregate.FormWide, aggregate.FormLong, aggregate.FormFull}, p.form) {
			return p, badParam("form", "unknown form %q", f)
		}
	}

	start, err := parseDayParam(q, "start")
	if err != nil {
		return p, err
	}
	p.query.Start = start

	switch format := q.Get("format"); format {
	case "", "json":
	case "csv":
		p.csv = true
	default:
		return p, badParam("format", "unknown format %q", format)
	}

	p.derive, err = parseDerivations(q)
	return p, err
}

func parseReport(q url.Values) (reportParams, error) {
	var (
		p   reportParams
		err error
	)
	if p.opts.raw, err = parseBoolParam(q, "raw"); err != nil {
		return p, err
	}
	if p.opts.labeled, err = parseBoolParam(q, "labeled"); err != nil {
		return p, err
	}
	if p.start, err = parseDayParam(q, "start"); err != nil {
		return p, err
	}
	p.derive, err = parseDerivations(q)
	if err != nil {
		return p, err
	}
	if p.opts.raw && (p.start != nil || p.derive.Period != nil || p.derive.Baseline != nil ||
		p.derive.Smooth != 0 || p.derive.Normalize != derive.NormalizeNone) {
		return p, badParam("raw", "raw dates cannot be sliced, resampled, rebased, smoothed or normalized")
	}
	return p, nil
}

func parseDerivations(q url.Values) (derive.Steps, error) {
	var d derive.Steps

	if s := q.Get("per"); s != "" {
		per, err := strconv.ParseFloat(s, 64)
		if err != nil || per <= 0 {
			return d, badParam("per", "must be a positive number, got %q", s)
		}
		d.Per = per
		d.Location = domain.Location{
			Country: q.Get("per_country"),
			Region:  q.Get("per_region"),
			County:  q.Get("per_county"),
		}
	}

	weekly, err := parseBoolParam(q, "weekly")
	if err != nil {
		return d, err
	}
	monthly, err := parseBoolParam(q, "monthly")
	if err != nil {
		return d, err
	}
	switch {
	case weekly && monthly:
		return d, badParam("weekly", "weekly and monthly are exclusive")
	case weekly:
		d.Period = &domain.Weekly
	case monthly:
		d.Period = &domain.Monthly
	}

	if col := q.Get("baseline_column"); col != "" {
		date, err := parseDayParam(q, "baseline_date")
		if err != nil {
			return d, err
		}
		if date == nil {
			return d, badParam("baseline_date", "required with baseline_column")
		}
		value, err := strconv.ParseFloat(q.Get("baseline_value"), 64)
		if err != nil {
			return d, badParam("baseline_value", "must be a number")
		}
		d.Baseline = &domain.Baseline{Column: col, Date: *date, Value: value}
	}

	if s := q.Get("sma"); s != "" {
		window, err := strconv.Atoi(s)
		if err != nil || window < 1 {
			return d, badParam("sma", "must be a positive window, got %q", s)
		}
		d.Smooth = window
	}
	norm, err := derive.ParseNormalization(q.Get("normalize"))
	if err != nil {
		return d, badParam("normalize", "%v", err)
	}
	d.Normalize = norm
	return d, nil
}

func parseDayParam(q url.Values, name string) (*time.Time, error) {
	s := q.Get(name)
	if s == "" {
		return nil, nil
	}
	t, err := domain.ParseDay(s)
	if err != nil {
		return nil, badParam(name, "%v", err)
	}
	return &t, nil
}

func parseBoolParam(q url.Values, name string) (bool, error) {
	s := q.Get(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, badParam(name, "must be a boolean, got %q", s)
	}
	return b, nil
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
