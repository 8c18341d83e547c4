package windowing

const (
	DefaultTokenBudget = 4096
	DefaultMaxMessages = 50

	// minKeep is the floor budget trimming never goes below.
	minKeep = 2
)

// Policy bounds a stored transcript. Non-positive fields mean the defaults.
type Policy struct {
	TokenBudget int
	MaxMessages int
}

func (p Policy) normalized() Policy {
	if p.TokenBudget <= 0 {
		p.TokenBudget = DefaultTokenBudget
	}
	if p.MaxMessages <= 0 {
		p.MaxMessages = DefaultMaxMessages
	}
	return p
}

// Stats summarizes one Trim call.
//
// Fields:
// - Before/After: message counts around the trim.
// - EstimatedCost: estimated cost of the surviving messages.
// - BudgetEvicted: messages dropped by the budget stage.
// - CapEvicted: messages dropped by the count cap.
// - OverBudgetFloor: the floor stopped budget trimming while still over budget.
type Stats struct {
	Before          int
	After           int
	Budget          int
	MaxMessages     int
	EstimatedCost   float64
	BudgetEvicted   int
	CapEvicted      int
	OverBudgetFloor bool
}

// Evicted reports whether any message was dropped.
func (s Stats) Evicted() bool { return s.BudgetEvicted+s.CapEvicted > 0 }

// Trim returns the suffix of msgs (oldest→newest) that survives both stages.
//
// Rules:
//   - Budget: while the total estimate exceeds the budget and at least 3
//     messages remain, drop the oldest. Two messages always survive, even
//     when they alone exceed the budget.
//   - Cap: keep at most MaxMessages of the most recent messages.
//
// The result aliases msgs; callers that keep msgs must copy.
func Trim(msgs []Message, p Policy, c TokenCounter) ([]Message, Stats) {
	p = p.normalized()
	if c == nil {
		c = HeuristicCounter{}
	}
	stats := Stats{Before: len(msgs), Budget: p.TokenBudget, MaxMessages: p.MaxMessages}

	budget := float64(p.TokenBudget)
	total := Total(msgs, c)
	start := 0
	for total > budget && len(msgs)-start > minKeep {
		total -= c.CountMessage(msgs[start])
		start++
	}
	stats.BudgetEvicted = start
	stats.OverBudgetFloor = total > budget

	if n := len(msgs) - start; n > p.MaxMessages {
		drop := n - p.MaxMessages
		for _, m := range msgs[start : start+drop] {
			total -= c.CountMessage(m)
		}
		start += drop
		stats.CapEvicted = drop
	}

	out := msgs[start:]
	stats.After = len(out)
	stats.EstimatedCost = total
	if stats.After == 0 {
		stats.EstimatedCost = 0
	}
	return out, stats
}
