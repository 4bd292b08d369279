package classifier

// Stats tallies rule hits across a classification batch.
type Stats struct {
	Total      int            `json:"total"`
	Classified int            `json:"classified"`
	Pending    int            `json:"pending_review"`
	ByRule     map[int]int    `json:"by_rule"`
	ByRuleName map[string]int `json:"by_rule_name"`
}

// NewStats creates an empty tally.
func NewStats() *Stats {
	return &Stats{
		ByRule:     make(map[int]int),
		ByRuleName: make(map[string]int),
	}
}

// Record folds one classification into the tally.
func (s *Stats) Record(c Classification) {
	s.Total++
	if c.Classified() {
		s.Classified++
	} else {
		s.Pending++
	}
	s.ByRule[c.Rule]++
	s.ByRuleName[c.RuleName]++
}

// ResolutionRate returns the fraction of records routed to a destination.
func (s *Stats) ResolutionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Classified) / float64(s.Total)
}
