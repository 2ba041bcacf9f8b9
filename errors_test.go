package model

import (
	"errors"
	"testing"
)

func TestStructuredError(t *testing.T) {
	err := NewError("CreateModelState", CodeException, "model panicked")

	if err.Op != "CreateModelState" {
		t.Errorf("Expected Op=CreateModelState, got %s", err.Op)
	}
	if err.Code != CodeException {
		t.Errorf("Expected Code=CodeException, got %s", err.Code)
	}

	expected := "model: CreateModelState: model panicked"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestWrapError(t *testing.T) {
	inner := errors.New("dial failed")
	err := WrapError("Run", CodeConnectionFailed, inner)

	if err.Code != CodeConnectionFailed {
		t.Errorf("Expected Code=CodeConnectionFailed, got %s", err.Code)
	}
	if !errors.Is(err, inner) {
		t.Error("Expected wrapped error to satisfy errors.Is for the inner error")
	}
}

func TestWrapErrorPreservesCodeOfExistingError(t *testing.T) {
	original := NewError("Dispatch", CodeInstantiatedModelNotFound, "unknown id")
	wrapped := WrapError("Run", CodeException, original)

	if wrapped.Code != CodeInstantiatedModelNotFound {
		t.Errorf("Expected wrapping to preserve original code, got %s", wrapped.Code)
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError("Run", CodeException, nil) != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("Train", CodeProtocolViolation, "malformed frame")

	if !IsCode(err, CodeProtocolViolation) {
		t.Error("IsCode should return true for matching code")
	}
	if IsCode(err, CodeException) {
		t.Error("IsCode should return false for non-matching code")
	}
	if IsCode(nil, CodeProtocolViolation) {
		t.Error("IsCode should return false for nil error")
	}
}
