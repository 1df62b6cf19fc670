package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNewRegistered(t *testing.T) {
	err := New("E001")
	if err.Code != "E001" {
		t.Errorf("Code = %q, want E001", err.Code)
	}
	if err.Category != CategoryProtocol {
		t.Errorf("Category = %q, want protocol", err.Category)
	}
	if !strings.Contains(err.Error(), "E001") {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
}

func TestNewUnknownCode(t *testing.T) {
	err := New("E999")
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q, want Unknown error", err.Message)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("E201").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false after Wrap")
	}
}

func TestFromErrorPassesThrough(t *testing.T) {
	orig := New("E101")
	if got := FromError(orig, "E102"); got != orig {
		t.Error("FromError should return an existing *Error unchanged")
	}
	if FromError(nil, "E102") != nil {
		t.Error("FromError(nil) should be nil")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := Format(New("E101").WithSuggestion("check the part kind"))
	for _, want := range []string{"E101", "binding", "hint:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format output missing %q:\n%s", want, out)
		}
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("E301"); !ok {
		t.Error("Lookup(E301) not found")
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup(nope) unexpectedly found")
	}
}
