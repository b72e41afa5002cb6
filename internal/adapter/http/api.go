package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/epi-report-service/internal/aggregate"
	"github.com/couchcryptid/epi-report-service/internal/annotations"
	"github.com/couchcryptid/epi-report-service/internal/dates"
	"github.com/couchcryptid/epi-report-service/internal/derive"
	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/export"
	"github.com/couchcryptid/epi-report-service/internal/report"
	"github.com/couchcryptid/epi-report-service/internal/stats"
)

// Services are the core components the API reads from.
type Services struct {
	Loader   *report.Loader
	Engine   *aggregate.Engine
	Dates    *dates.Service
	Stats    *stats.Lookup
	KeyDates []annotations.KeyDate
}

type api struct {
	svc    *Services
	logger *slog.Logger
}

func (a *api) handleDates(w http.ResponseWriter, _ *http.Request) {
	cal, err := a.svc.Dates.Calendar()
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalendarView(cal))
}

func (a *api) handleKeyDates(w http.ResponseWriter, r *http.Request) {
	within, err := parseBoolParam(r.URL.Query(), "within")
	if err != nil {
		a.fail(w, err)
		return
	}
	out := a.svc.KeyDates
	if within {
		span, err := a.svc.Dates.Available()
		if err != nil {
			a.fail(w, err)
			return
		}
		out = annotations.Within(out, span)
	}
	if out == nil {
		out = []annotations.KeyDate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"key_dates": out})
}

func (a *api) handleCountries(w http.ResponseWriter, _ *http.Request) {
	a.writeEntities(w, domain.Scope{}, "countries")
}

func (a *api) handleRegions(w http.ResponseWriter, r *http.Request) {
	a.writeEntities(w, domain.Scope{Country: chi.URLParam(r, "country")}, "regions")
}

func (a *api) writeEntities(w http.ResponseWriter, scope domain.Scope, key string) {
	names, err := a.svc.Engine.Entities(scope)
	if err != nil {
		a.fail(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{key: names})
}

func (a *api) handleCountryReport(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	a.serveReport(w, r, domain.Location{Country: country}, func(opts report.Options) (*domain.Report, error) {
		return a.svc.Loader.LoadCountry(country, opts)
	})
}

func (a *api) handleRegionReport(w http.ResponseWriter, r *http.Request) {
	country, region := chi.URLParam(r, "country"), chi.URLParam(r, "region")
	a.serveReport(w, r, domain.Location{Country: country, Region: region}, func(opts report.Options) (*domain.Report, error) {
		return a.svc.Loader.LoadRegion(country, region, opts)
	})
}

// serveReport loads one report and applies the requested derivations.
// Per-capita defaults to the entity the report belongs to.
func (a *api) serveReport(w http.ResponseWriter, r *http.Request, loc domain.Location, load func(report.Options) (*domain.Report, error)) {
	p, err := parseReport(r.URL.Query())
	if err != nil {
		a.fail(w, err)
		return
	}

	opts := report.Indexed
	switch {
	case p.opts.raw:
		opts = report.Raw
	case p.opts.labeled:
		opts = report.Labeled
	}

	rep, err := load(opts)
	if err != nil {
		a.fail(w, err)
		return
	}
	if p.start != nil {
		rep = rep.Since(*p.start)
	}
	if p.derive.Per > 0 && p.derive.Location.Country == "" {
		p.derive.Location = loc
	}
	if rep, err = derive.Apply(a.svc.Stats, rep, p.derive); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportView(rep))
}

func (a *api) handleAggregate(w http.ResponseWriter, r *http.Request) {
	p, err := parseAggregate(r.URL.Query())
	if err != nil {
		a.fail(w, err)
		return
	}

	tbl, err := a.aggregate(p)
	if err != nil {
		a.fail(w, err)
		return
	}

	if p.csv {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := export.WriteCSV(w, tbl); err != nil {
			a.logger.Error("write csv response", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, newTableView(tbl, p.form))
}

func (a *api) aggregate(p aggregateParams) (domain.Table, error) {
	switch p.form {
	case aggregate.FormWide:
		t, err := a.svc.Engine.Wide(p.scope, p.query)
		if err != nil {
			return nil, err
		}
		return derive.Apply(a.svc.Stats, t, p.derive)
	case aggregate.FormFull:
		t, err := a.svc.Engine.Full(p.scope, p.query)
		if err != nil {
			return nil, err
		}
		return derive.Apply(a.svc.Stats, t, p.derive)
	default:
		t, err := a.svc.Engine.Long(p.scope, p.query)
		if err != nil {
			return nil, err
		}
		return derive.Apply(a.svc.Stats, t, p.derive)
	}
}

func (a *api) handleCountriesStats(w http.ResponseWriter, _ *http.Request) {
	a.writeStats(w)(a.svc.Stats.Countries())
}

func (a *api) handleRegionsStats(w http.ResponseWriter, r *http.Request) {
	a.writeStats(w)(a.svc.Stats.Regions(chi.URLParam(r, "country")))
}

func (a *api) handleCountiesStats(w http.ResponseWriter, r *http.Request) {
	a.writeStats(w)(a.svc.Stats.Counties(chi.URLParam(r, "country"), chi.URLParam(r, "region")))
}

func (a *api) writeStats(w http.ResponseWriter) func(domain.StatsTable, error) {
	return func(t domain.StatsTable, err error) {
		if err != nil {
			a.fail(w, err)
			return
		}
		if t.Rows == nil {
			t.Rows = []domain.EntityStats{}
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func (a *api) fail(w http.ResponseWriter, err error) {
	status, kind := statusOf(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("api request failed", "error", err)
	} else {
		a.logger.Debug("api request rejected", "kind", kind, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": kind})
}

func statusOf(err error) (int, string) {
	if errors.Is(err, errBadParam) {
		return http.StatusBadRequest, "bad_request"
	}
	kind := domain.KindName(err)
	switch kind {
	case "not_found":
		return http.StatusNotFound, kind
	case "malformed":
		return http.StatusUnprocessableEntity, kind
	case "degenerate":
		return http.StatusBadRequest, kind
	default:
		return http.StatusInternalServerError, kind
	}
}
