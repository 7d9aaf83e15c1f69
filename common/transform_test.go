package common

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		action string
		in     string
		want   string
	}{
		{"reverse word", ActionReverse, "test", "tset"},
		{"reverse sentence", ActionReverse, "hello world", "dlrow olleh"},
		{"reverse empty", ActionReverse, "", ""},
		{"reverse single char", ActionReverse, "x", "x"},
		{"reverse palindrome", ActionReverse, "racecar", "racecar"},
		{"uppercase", ActionUppercase, "this is a test", "THIS IS A TEST"},
		{"uppercase mixed", ActionUppercase, "MiXeD 123 !?", "MIXED 123 !?"},
		{"uppercase empty", ActionUppercase, "", ""},
		{"lowercase", ActionLowercase, "THIS IS A TEST", "this is a test"},
		{"lowercase mixed", ActionLowercase, "MiXeD 123 !?", "mixed 123 !?"},
		{"title-case", ActionTitleCase, "this is a test", "This Is A Test"},
		{"title-case shouting", ActionTitleCase, "STOP SHOUTING NOW", "Stop Shouting Now"},
		{"title-case keeps spacing", ActionTitleCase, "two  spaces\tand tab", "Two  Spaces\tAnd Tab"},
		{"title-case leading space", ActionTitleCase, "  padded word", "  Padded Word"},
		{"title-case digit start", ActionTitleCase, "4ever young", "4ever Young"},
		{"title-case empty", ActionTitleCase, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.action, tt.in)
			if err != nil {
				t.Fatalf("Apply(%q, %q) returned error: %v", tt.action, tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Apply(%q, %q) = %q, want %q", tt.action, tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyUnknownAction(t *testing.T) {
	_, err := Apply("rot13", "some text")
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("Apply with unknown action returned %v, want ErrUnknownAction", err)
	}
}

func TestApplyAtSizeLimit(t *testing.T) {
	in := strings.Repeat("x", MaxTextLen)
	got, err := Apply(ActionUppercase, in)
	if err != nil {
		t.Fatalf("Apply at the size limit returned error: %v", err)
	}
	if want := strings.Repeat("X", MaxTextLen); got != want {
		t.Errorf("Apply(%s, %d*\"x\") did not uppercase the whole payload", ActionUppercase, MaxTextLen)
	}
}

func TestReverseIsItsOwnInverse(t *testing.T) {
	inputs := []string{"", "a", "ab", "hello world", "  spaced  out  ", strings.Repeat("xy", 512)}
	for _, in := range inputs {
		if got := Reverse(Reverse(in)); got != in {
			t.Errorf("Reverse(Reverse(%q)) = %q, want the input back", in, got)
		}
	}
}

func TestCaseTransformsAreIdempotent(t *testing.T) {
	inputs := []string{"", "Sample Text", "ALL CAPS", "123 !?", "mixed CASE words"}
	for _, in := range inputs {
		if got := Uppercase(Uppercase(in)); got != Uppercase(in) {
			t.Errorf("Uppercase(Uppercase(%q)) = %q, want %q", in, got, Uppercase(in))
		}
		if got := Lowercase(Lowercase(in)); got != Lowercase(in) {
			t.Errorf("Lowercase(Lowercase(%q)) = %q, want %q", in, got, Lowercase(in))
		}
	}
}

func TestActionNamesSorted(t *testing.T) {
	want := []string{ActionLowercase, ActionReverse, ActionTitleCase, ActionUppercase}
	if got := ActionNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("ActionNames() = %v, want %v", got, want)
	}
}
