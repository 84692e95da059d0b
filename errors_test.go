package fmask

import (
	"errors"
	"testing"
)

func TestInputErrorUnwrapsAndFormats(t *testing.T) {
	cause := errors.New("missing _MTL.txt")
	err := &InputError{Path: "/scenes/LC08", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("InputError should unwrap to its cause")
	}
	if err.Error() == "" {
		t.Fatalf("InputError.Error() should not be empty")
	}
}

func TestAuxErrorUnwrapsAndFormats(t *testing.T) {
	cause := errors.New("no coverage for this scene")
	err := &AuxError{Source: "mapzen", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("AuxError should unwrap to its cause")
	}
	if err.Error() == "" {
		t.Fatalf("AuxError.Error() should not be empty")
	}
}

func TestNumericErrorUnwrapsAndFormats(t *testing.T) {
	cause := errors.New("empty selection")
	err := &NumericError{Stage: "cloudprob.Compute", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("NumericError should unwrap to its cause")
	}
	if err.Error() == "" {
		t.Fatalf("NumericError.Error() should not be empty")
	}
}
