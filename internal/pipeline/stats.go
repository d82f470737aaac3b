package pipeline

import "sort"

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total            int
	Current          int
	Converted        int
	Skipped          int
	Failed           int
	TotalInputBytes  int64
	TotalOutputBytes int64

	// ByStrategy counts converted files per winning decode strategy.
	ByStrategy map[string]int
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

func (s *RunStats) record(strategy string) {
	if s.ByStrategy == nil {
		s.ByStrategy = make(map[string]int)
	}
	s.ByStrategy[strategy]++
}

// Strategies returns the strategy names seen, sorted.
func (s *RunStats) Strategies() []string {
	names := make([]string, 0, len(s.ByStrategy))
	for n := range s.ByStrategy {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
