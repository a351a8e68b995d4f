package authhook

import (
	"testing"

	"github.com/triptych/tangle/peerid"
)

func TestTrustWireOriginAlwaysPasses(t *testing.T) {
	a, b := peerid.New(), peerid.New()
	if err := TrustWireOrigin.Validate(a, b); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestRequireMatchRejectsMismatch(t *testing.T) {
	a, b := peerid.New(), peerid.New()
	if err := RequireMatch.Validate(a, a); err != nil {
		t.Fatalf("expected match to pass, got %v", err)
	}
	if err := RequireMatch.Validate(a, b); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFuncValidatorAdapts(t *testing.T) {
	called := false
	v := FuncValidator(func(peerid.PeerID, peerid.PeerID) error {
		called = true
		return nil
	})
	_ = v.Validate(peerid.New(), peerid.New())
	if !called {
		t.Fatalf("expected underlying func to be invoked")
	}
}
