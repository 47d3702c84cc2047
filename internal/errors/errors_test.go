package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestRegistryCodes(t *testing.T) {
	for _, code := range []string{"E001", "E002", "E003", "E004", "E005", "E050", "E051"} {
		e := New(code)
		if e.Code != code {
			t.Errorf("New(%s).Code = %s", code, e.Code)
		}
		if e.Message == "" || e.Message == "unknown error" {
			t.Errorf("%s not registered", code)
		}
		if e.Suggestion == "" {
			t.Errorf("%s has no suggestion", code)
		}
	}
}

func TestUnknownCodeStillUsable(t *testing.T) {
	e := New("E999")
	if e.Code != "E999" {
		t.Errorf("Code = %s", e.Code)
	}
	if !strings.Contains(e.Error(), "E999") {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestErrorFormatting(t *testing.T) {
	e := New("E004")
	if got := e.Error(); !strings.HasPrefix(got, "E004: ") {
		t.Errorf("Error() = %q", got)
	}

	e = Newf("E004", "key %q", "theme")
	if got := e.Error(); !strings.Contains(got, `key "theme"`) {
		t.Errorf("detail missing: %q", got)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Newf("E003", "selector %q", "#overlay"))

	if !stderrors.Is(wrapped, New("E003")) {
		t.Error("same code did not match")
	}
	if stderrors.Is(wrapped, New("E004")) {
		t.Error("different code matched")
	}
}

func TestWrapAndAs(t *testing.T) {
	cause := stderrors.New("disk full")
	e := New("E005").Wrap(cause)

	if !stderrors.Is(e, cause) {
		t.Error("wrapped cause not reachable")
	}

	var coded *Error
	if !stderrors.As(fmt.Errorf("outer: %w", e), &coded) {
		t.Fatal("As failed")
	}
	if coded.Code != "E005" {
		t.Errorf("Code = %s", coded.Code)
	}
}

func TestCategories(t *testing.T) {
	if New("E001").Category != CategoryRuntime {
		t.Error("E001 should be runtime")
	}
	if New("E050").Category != CategoryConfig {
		t.Error("E050 should be config")
	}
}
