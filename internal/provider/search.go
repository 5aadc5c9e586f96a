package provider

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// ProviderFailure reports one marketplace that could not answer.
type ProviderFailure struct {
	Provider model.Provider `json:"provider"`
	Error    string         `json:"error"`
}

// EventSearchResult merges the answers of every configured marketplace.
type EventSearchResult struct {
	Events   []model.EventRecord `json:"events"`
	Failures []ProviderFailure   `json:"failures"`
}

// EventSearch fans a query out to every searcher concurrently.  A single
// marketplace failing does not fail the search.
type EventSearch struct {
	Searchers []EventSearcher
	OnFailure func(p model.Provider, err error) // optional, e.g. metrics
}

// Search returns ErrNotConfigured when no searcher could run, and an
// *UpstreamError when every configured searcher failed.
func (s *EventSearch) Search(ctx context.Context, q EventQuery) (*EventSearchResult, error) {
	type answer struct {
		provider model.Provider
		events   []model.EventRecord
		err      error
	}
	answers := make([]answer, len(s.Searchers))

	var wg sync.WaitGroup
	for i, searcher := range s.Searchers {
		wg.Add(1)
		go func(i int, searcher EventSearcher) {
			defer wg.Done()
			events, err := searcher.Search(ctx, q)
			answers[i] = answer{provider: searcher.Provider(), events: events, err: err}
		}(i, searcher)
	}
	wg.Wait()

	res := &EventSearchResult{Events: []model.EventRecord{}, Failures: []ProviderFailure{}}
	configured := 0
	var lastErr error
	for _, a := range answers {
		if errors.Is(a.err, ErrNotConfigured) {
			continue
		}
		configured++
		if a.err != nil {
			lastErr = a.err
			log.Warn().Err(a.err).Str("provider", string(a.provider)).Msg("event search: provider failed")
			if s.OnFailure != nil {
				s.OnFailure(a.provider, a.err)
			}
			res.Failures = append(res.Failures, ProviderFailure{Provider: a.provider, Error: a.err.Error()})
			continue
		}
		res.Events = append(res.Events, a.events...)
	}
	if configured == 0 {
		return nil, ErrNotConfigured
	}
	if len(res.Failures) == configured {
		return nil, lastErr
	}
	return res, nil
}
