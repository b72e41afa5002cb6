// Package dates derives the covered date span from the daily report archive.
package dates

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/epi-report-service/internal/domain"
	"github.com/couchcryptid/epi-report-service/internal/observability"
	"github.com/couchcryptid/epi-report-service/internal/paths"
)

const opAvailable = "available dates"

// Service inspects the daily archive. It keeps no state between calls.
type Service struct {
	paths   *paths.Resolver
	metrics *observability.Metrics
}

// NewService creates a service over the archive resolved by p. metrics may
// be nil.
func NewService(p *paths.Resolver, metrics *observability.Metrics) *Service {
	return &Service{paths: p, metrics: metrics}
}

// Available returns the inclusive span of reliable days. Archive files are
// named yyyy-mm-dd.csv and sort chronologically. When the newest file holds a
// single data row that day is treated as incomplete and excluded.
func (s *Service) Available() (domain.DateSpan, error) {
	files, err := s.paths.DailyReports()
	if err != nil {
		return domain.DateSpan{}, err
	}
	if len(files) == 0 {
		return domain.DateSpan{}, domain.Degenerate(opAvailable, "daily archive %s is empty", s.paths.DailyReportsDir())
	}

	first, err := stemDate(files[0])
	if err != nil {
		return domain.DateSpan{}, err
	}
	lastFile := files[len(files)-1]
	last, err := stemDate(lastFile)
	if err != nil {
		return domain.DateSpan{}, err
	}

	rows, err := countRows(filepath.Join(s.paths.DailyReportsDir(), lastFile))
	if err != nil {
		return domain.DateSpan{}, err
	}
	if rows == 1 {
		last = last.AddDate(0, 0, -1)
	}
	if s.metrics != nil {
		s.metrics.ArchiveLastDay.Set(float64(last.Unix()))
	}
	return domain.DateSpan{First: first, Last: last}, nil
}

// Calendar returns the chart date constants for the current archive.
func (s *Service) Calendar() (domain.Calendar, error) {
	span, err := s.Available()
	if err != nil {
		return domain.Calendar{}, err
	}
	return domain.NewCalendar(span), nil
}

// CheckReadiness reports whether the archive span can be computed.
func (s *Service) CheckReadiness(_ context.Context) error {
	_, err := s.Available()
	return err
}

func stemDate(file string) (time.Time, error) {
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	d, err := time.Parse("2006-01-02", stem)
	if err != nil {
		return time.Time{}, domain.Malformed(opAvailable, file, "file name is not a yyyy-mm-dd date")
	}
	return d, nil
}

// countRows counts the data records after the header.
func countRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, domain.NotFound(opAvailable, path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	n := -1
	for {
		_, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, domain.Malformed(opAvailable, path, "%w", err)
		}
		n++
	}
	return max(n, 0), nil
}
