package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/petasbytes/aichat/internal/apperr"
)

type upstreamLike struct{}

func (upstreamLike) Error() string          { return "upstream" }
func (upstreamLike) ErrorKind() apperr.Kind { return apperr.KindUpstreamFailure }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"nil", nil, apperr.KindUnknown},
		{"plain", errors.New("x"), apperr.KindUnknown},
		{"not_found", apperr.NotFound("persona %q", "x"), apperr.KindNotFound},
		{"wrapped_invalid", fmt.Errorf("op: %w", apperr.InvalidInput("bad")), apperr.KindInvalidInput},
		{"foreign_classified", fmt.Errorf("call: %w", upstreamLike{}), apperr.KindUpstreamFailure},
		{"wrap", apperr.Wrap(apperr.KindPersistenceFailure, errors.New("disk"), "write failed"), apperr.KindPersistenceFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf=%q want %q", got, tt.want)
			}
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	base := errors.New("disk full")
	err := apperr.Wrap(apperr.KindPersistenceFailure, base, "save failed")
	if err.Error() != "save failed: disk full" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Fatal("expected errors.Is to reach the wrapped error")
	}
	if !apperr.Is(err, apperr.KindPersistenceFailure) {
		t.Fatal("expected persistence kind")
	}
	if apperr.Is(nil, apperr.KindUnknown) {
		t.Fatal("nil must never match a kind")
	}
}
