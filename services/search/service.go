package search

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meghashyamc/searchdesk/db/searchdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/metrics"
)

const minSuggestLength = 2

type Service struct {
	logger  logger.Logger
	db      searchdb.DB
	options Options
}

func New(logger logger.Logger, db searchdb.DB, options Options) *Service {
	return &Service{
		logger:  logger,
		db:      db,
		options: options,
	}
}

func (s *Service) Search(ctx context.Context, state State) (*Results, error) {
	query, err := BuildQuery(state, s.options)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := s.db.Search(ctx, query)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		s.logger.Error("search failed", "query", query.Text, "page", state.Page, "err", err.Error())
		return nil, err
	}

	results, err := NewResults(state, response, s.options)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		s.logger.Error("could not read search response", "query", query.Text, "err", err.Error())
		return nil, err
	}

	if results.Empty() {
		metrics.SearchesTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.SearchesTotal.WithLabelValues("ok").Inc()
	}
	s.logger.Debug("search completed", "query", query.Text, "page", state.Page, "total", results.Total)

	return results, nil
}

// Suggest returns completions for text. Input shorter than two characters is
// not sent to the engine, and engine failures yield no suggestions.
func (s *Service) Suggest(ctx context.Context, text string) []string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minSuggestLength {
		metrics.SuggestionsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	suggestions, err := s.db.Suggest(ctx, text)
	if err != nil {
		metrics.SuggestionsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("could not fetch suggestions", "text", text, "err", err.Error())
		return nil
	}

	metrics.SuggestionsTotal.WithLabelValues("ok").Inc()
	return suggestions
}
