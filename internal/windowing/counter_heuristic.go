package windowing

import "unicode/utf8"

// Message is one transcript entry as sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenCounter estimates input-token cost for a message.
type TokenCounter interface {
	CountMessage(m Message) float64
}

// HeuristicCounter is the default deterministic estimator: a quarter token
// per rune of content. Roles and framing are not counted.
type HeuristicCounter struct{}

// runesPerToken is the coarse ratio used by HeuristicCounter.
const runesPerToken = 4

func (HeuristicCounter) CountMessage(m Message) float64 {
	return float64(utf8.RuneCountInString(m.Content)) / runesPerToken
}

// Total sums the estimated cost of msgs.
func Total(msgs []Message, c TokenCounter) float64 {
	var total float64
	for _, m := range msgs {
		total += c.CountMessage(m)
	}
	return total
}
