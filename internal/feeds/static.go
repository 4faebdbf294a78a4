package feeds

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"ledgerpulse/internal/dataprocessing"
	"ledgerpulse/internal/errors"
	"ledgerpulse/pkg/contracts/domain"
)

// StaticSource serves CSV text held in memory. Failures can be injected per
// feed, which makes it the fixture source for refresh-cycle tests.
type StaticSource struct {
	mu    sync.Mutex
	docs  map[domain.FeedKind]string
	errs  map[domain.FeedKind]error
	calls map[domain.FeedKind]int
	now   func() time.Time
}

// NewStaticSource creates a source serving the given works and expenses CSV
func NewStaticSource(worksCSV, expensesCSV string) *StaticSource {
	return &StaticSource{
		docs: map[domain.FeedKind]string{
			domain.FeedWorks:    worksCSV,
			domain.FeedExpenses: expensesCSV,
		},
		errs:  make(map[domain.FeedKind]error),
		calls: make(map[domain.FeedKind]int),
		now:   time.Now,
	}
}

// NewFileSource reads both feeds from local CSV files once
func NewFileSource(worksPath, expensesPath string) (*StaticSource, error) {
	works, err := os.ReadFile(worksPath)
	if err != nil {
		return nil, errors.NewStorageError("failed to read works file", err).WithContext("path", worksPath)
	}
	expenses, err := os.ReadFile(expensesPath)
	if err != nil {
		return nil, errors.NewStorageError("failed to read expenses file", err).WithContext("path", expensesPath)
	}
	return NewStaticSource(string(works), string(expenses)), nil
}

// Name identifies the source in logs and status output
func (s *StaticSource) Name() string { return "static" }

// Set replaces the CSV text of one feed and clears any injected failure
func (s *StaticSource) Set(kind domain.FeedKind, csv string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[kind] = csv
	delete(s.errs, kind)
}

// Fail makes every following fetch of kind return err
func (s *StaticSource) Fail(kind domain.FeedKind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[kind] = err
}

// Calls returns how many times kind was fetched
func (s *StaticSource) Calls(kind domain.FeedKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

// Fetch returns the stored document or the injected failure
func (s *StaticSource) Fetch(ctx context.Context, kind domain.FeedKind) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyTransportError(ctx, "fetch cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[kind]++
	if err := s.errs[kind]; err != nil {
		return nil, err
	}

	text, ok := s.docs[kind]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("feed %q", kind))
	}

	return &Document{
		Kind:      kind,
		Rows:      dataprocessing.SplitDocument(text),
		Bytes:     int64(len(text)),
		FetchedAt: s.now().UTC(),
		Origin:    "static://" + string(kind),
	}, nil
}
