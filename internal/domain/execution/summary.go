package execution

// Classification is the verdict for a single fixture.
type Classification string

const (
	Good    Classification = "good"
	Bad     Classification = "bad"
	Unknown Classification = "unknown"
)

// RunSummary accumulates fixture verdicts for one batch.
type RunSummary struct {
	Good        int
	Bad         int
	Unknown     int
	Total       int
	BadFixtures []string
}

// Record adds one verdict. The fixture name is appended to BadFixtures at
// most once.
func (s *RunSummary) Record(name string, c Classification) {
	switch c {
	case Good:
		s.Good++
	case Bad:
		s.Bad++
		for _, existing := range s.BadFixtures {
			if existing == name {
				s.Total++
				return
			}
		}
		s.BadFixtures = append(s.BadFixtures, name)
	default:
		s.Unknown++
	}
	s.Total++
}

// Consistent reports whether the per-class counters add up to Total.
func (s RunSummary) Consistent() bool {
	return s.Good+s.Bad+s.Unknown == s.Total
}
