package errortypes_test

import (
	"errors"
	"testing"

	"github.com/robfig/jsdeobfuscate/errortypes"
)

func TestAsDiscoversWrappedKind(t *testing.T) {
	err := fmtWrap(&errortypes.SandboxEvalFailure{Code: "f(1)", Err: errors.New("timeout")})

	var evalErr *errortypes.SandboxEvalFailure
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected errors.As to find *SandboxEvalFailure in %v", err)
	}
	if evalErr.Code != "f(1)" {
		t.Errorf("expected Code %q, got %q", "f(1)", evalErr.Code)
	}
}

func fmtWrap(err error) error {
	return &wrapper{err}
}

type wrapper struct{ err error }

func (w *wrapper) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapper) Unwrap() error { return w.err }
