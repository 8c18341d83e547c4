package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/petasbytes/aichat/internal/apperr"
	"github.com/petasbytes/aichat/internal/chat"
	"github.com/petasbytes/aichat/internal/logging"
	"github.com/petasbytes/aichat/internal/provider"
)

type Dispatcher struct {
	svc  *chat.Service
	defs []Definition
	log  *slog.Logger
}

// NewDispatcher serves defs, or Registry() when defs is empty.
func NewDispatcher(svc *chat.Service, logger *slog.Logger, defs ...Definition) *Dispatcher {
	if len(defs) == 0 {
		defs = Registry()
	}
	return &Dispatcher{svc: svc, defs: defs, log: logging.OrDiscard(logger)}
}

// Definitions returns the served commands in match order.
func (d *Dispatcher) Definitions() []Definition {
	return append([]Definition(nil), d.defs...)
}

// Match finds the command with the longest prefix matching text and returns
// it with the remaining argument text.
func (d *Dispatcher) Match(text string) (Definition, string, bool) {
	text = strings.TrimSpace(text)
	var (
		best    Definition
		bestLen int
	)
	for _, def := range d.defs {
		for _, p := range def.Prefixes {
			if len(p) > bestLen && matchPrefix(text, p) {
				best, bestLen = def, len(p)
			}
		}
	}
	if bestLen == 0 {
		return Definition{}, "", false
	}
	return best, strings.TrimSpace(text[bestLen:]), true
}

// Dispatch runs the command text names for conversation id. handled is false
// when no prefix matches; reply then is empty.
func (d *Dispatcher) Dispatch(ctx context.Context, id, text string, admin bool) (reply string, handled bool) {
	def, arg, ok := d.Match(text)
	if !ok {
		return "", false
	}
	env := Env{Service: d.svc, Conversation: id, Admin: admin}
	out, err := def.Handler(ctx, env, arg)
	if err != nil {
		d.log.Debug("command_failed", "command", def.Name, "group", id, "kind", string(apperr.KindOf(err)), "error", err)
		return d.Render(err), true
	}
	return out, true
}

// Render turns err into the text shown to the user.
func (d *Dispatcher) Render(err error) string {
	var upstream *provider.UpstreamError
	switch {
	case errors.Is(err, provider.ErrEmptyReply):
		return "The AI returned an empty reply. Did the question stump it?"
	case errors.As(err, &upstream):
		return "AI error: " + upstream.Advice()
	}
	var ae *apperr.Error
	switch apperr.KindOf(err) {
	case apperr.KindBusy, apperr.KindNotFound, apperr.KindInvalidInput, apperr.KindInvalidOperation:
		if errors.As(err, &ae) {
			return ae.Message
		}
		return err.Error()
	case apperr.KindPersistenceFailure:
		if errors.As(err, &ae) {
			return ae.Message + ", please try again."
		}
		return "Could not save changes, please try again."
	case apperr.KindUpstreamFailure:
		return "AI error: " + err.Error()
	}
	d.log.Error("command_internal_error", "error", err)
	return "Internal error, please try again later."
}

func matchPrefix(text, p string) bool {
	if !strings.HasPrefix(text, p) {
		return false
	}
	rest := text[len(p):]
	if rest == "" {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(p)
	next, _ := utf8.DecodeRuneInString(rest)
	return !(isWordASCII(last) && isWordASCII(next))
}

func isWordASCII(r rune) bool {
	return r < utf8.RuneSelf && (r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
}

// Help lists every command with its description.
func (d *Dispatcher) Help() string {
	var b strings.Builder
	b.WriteString("Commands:")
	for _, def := range d.defs {
		b.WriteString("\n  ")
		b.WriteString(def.Prefixes[0])
		b.WriteString("  ")
		b.WriteString(def.Description)
	}
	return b.String()
}
