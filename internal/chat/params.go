package chat

import (
	"math"
	"strconv"
	"strings"

	"github.com/petasbytes/aichat/internal/apperr"
	"github.com/petasbytes/aichat/memory"
)

// Parameter names accepted by SetParameter.
const (
	ParamTemperature = "temperature"
	ParamMaxTokens   = "max_tokens"
)

const (
	minTemperature = 0
	maxTemperature = 2
	minMaxTokens   = 1
	maxMaxTokens   = 8192
)

// SetParameter validates value and stores it as the conversation's
// override for name. It returns the normalised value.
func (s *Service) SetParameter(id, name, value string) (string, error) {
	value = strings.TrimSpace(value)
	var apply func(*memory.Record)
	var normalized string

	switch name {
	case ParamTemperature:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || v < minTemperature || v > maxTemperature {
			return "", apperr.InvalidInput("temperature must be a number between %d and %d", minTemperature, maxTemperature)
		}
		apply = func(r *memory.Record) { r.Parameters.Temperature = &v }
		normalized = strconv.FormatFloat(v, 'g', -1, 64)
	case ParamMaxTokens:
		v, err := strconv.Atoi(value)
		if err != nil || v < minMaxTokens || v > maxMaxTokens {
			return "", apperr.InvalidInput("max_tokens must be an integer between %d and %d", minMaxTokens, maxMaxTokens)
		}
		apply = func(r *memory.Record) { r.Parameters.MaxTokens = &v }
		normalized = strconv.Itoa(v)
	default:
		return "", apperr.InvalidInput("unknown parameter %q", name)
	}

	err := s.exclusive(id, func() error {
		s.store.Update(id, apply)
		return nil
	})
	return normalized, err
}
