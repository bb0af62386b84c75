package list

import (
	statehooks "github.com/devesharp/statehooks"
)

// Infinite configures infinite scroll. Bidirectional enables LoadPrevious.
type Infinite struct {
	Enabled       bool
	Bidirectional bool
	InitialOffset int
}

// State is a snapshot of an accumulator
type State[T any] struct {
	Items   []T
	Total   int
	Filters Filters
	Status  statehooks.StatusInfo

	IsSearching                      bool
	IsErrorOnSearching               bool
	IsErrorOnSearchingInfiniteScroll bool
	IsLoadingMore                    bool
	IsLoadingPrevious                bool
	HasReachedEnd                    bool
	HasReachedStart                  bool

	IsFirstPage bool
	IsLastPage  bool
	CurrentPage int
	TotalPages  int
}

func (s State[T]) inFlight() bool {
	return s.IsSearching || s.IsLoadingMore || s.IsLoadingPrevious
}

func (s *State[T]) derivePages() {
	limit := s.Filters.Limit
	s.IsFirstPage = s.Filters.Offset <= 0
	s.IsLastPage = s.Filters.Offset+limit >= s.Total
	s.CurrentPage = s.Filters.Page()
	s.TotalPages = 0
	if limit > 0 {
		s.TotalPages = (s.Total + limit - 1) / limit
	}
}
