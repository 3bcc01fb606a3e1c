package revision

import "fmt"

// PolicyRow defines the revision cadence for one comprehension tier.
type PolicyRow struct {
	IntervalDays []int          `yaml:"interval_days"`
	Activities   []RevisionType `yaml:"activities"`
	Priority     Priority       `yaml:"priority"`
}

// IntervalPolicy maps comprehension tiers to revision cadences and carries the
// per-activity effort estimates. It is injected into the scheduler so
// deployments can tune cadence without code changes.
type IntervalPolicy struct {
	Rows          map[Understanding]PolicyRow `yaml:"rows"`
	EffortMinutes map[RevisionType]int        `yaml:"effort_minutes"`
}

// DefaultPolicy returns the standard spaced-repetition table: weaker
// comprehension gets more revisions, tighter intervals, and higher priority.
func DefaultPolicy() IntervalPolicy {
	return IntervalPolicy{
		Rows: map[Understanding]PolicyRow{
			UnderstandingConfused: {
				IntervalDays: []int{1, 3, 7, 14, 21, 30},
				Activities:   []RevisionType{TypeNotes, TypeQuiz, TypeQuiz, TypeRecall, TypeQuiz, TypeRecall},
				Priority:     PriorityCritical,
			},
			UnderstandingPartial: {
				IntervalDays: []int{1, 3, 7, 14},
				Activities:   []RevisionType{TypeQuiz, TypeQuiz, TypeRecall, TypeRecall},
				Priority:     PriorityHigh,
			},
			UnderstandingClear: {
				IntervalDays: []int{3, 7, 14},
				Activities:   []RevisionType{TypeRecall, TypeQuiz, TypeRecall},
				Priority:     PriorityMedium,
			},
			UnderstandingCrystal: {
				IntervalDays: []int{7, 14},
				Activities:   []RevisionType{TypeRecall, TypeRecall},
				Priority:     PriorityLow,
			},
		},
		EffortMinutes: map[RevisionType]int{
			TypeNotes:   5,
			TypeQuiz:    10,
			TypeRecall:  8,
			TypeCoding:  15,
			TypeExplain: 12,
		},
	}
}

// Row returns the cadence for the given tier.
func (p IntervalPolicy) Row(level Understanding) (PolicyRow, bool) {
	row, ok := p.Rows[level]
	return row, ok
}

// Effort returns the estimated minutes for an activity type.
func (p IntervalPolicy) Effort(t RevisionType) int {
	return p.EffortMinutes[t]
}

// Validate checks that every row pairs each interval day with an activity and
// that every referenced activity has an effort estimate.
func (p IntervalPolicy) Validate() error {
	if len(p.Rows) == 0 {
		return fmt.Errorf("interval policy has no rows")
	}
	for level, row := range p.Rows {
		if len(row.IntervalDays) == 0 {
			return fmt.Errorf("policy row %q has no intervals", level)
		}
		if len(row.IntervalDays) != len(row.Activities) {
			return fmt.Errorf("policy row %q: %d intervals but %d activities",
				level, len(row.IntervalDays), len(row.Activities))
		}
		for i := 1; i < len(row.IntervalDays); i++ {
			if row.IntervalDays[i] <= row.IntervalDays[i-1] {
				return fmt.Errorf("policy row %q: interval days must be strictly increasing", level)
			}
		}
		for _, act := range row.Activities {
			if _, ok := p.EffortMinutes[act]; !ok {
				return fmt.Errorf("policy row %q: no effort estimate for activity %q", level, act)
			}
		}
	}
	return nil
}
