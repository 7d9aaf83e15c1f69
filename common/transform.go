package common

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Action names accepted on the wire. The set is closed: the client
// rejects anything else before touching the network, and the server
// drops it if it arrives anyway.
const (
	ActionReverse   = "reverse"
	ActionUppercase = "uppercase"
	ActionLowercase = "lowercase"
	ActionTitleCase = "title-case"
)

// ErrUnknownAction reports an action name outside the closed set.
var ErrUnknownAction = errors.New("unknown action")

// Transforms maps each action name to its implementation. It is built
// once and never mutated; the client reads it to validate arguments and
// the server reads it to dispatch requests.
var Transforms = map[string]func(string) string{
	ActionReverse:   Reverse,
	ActionUppercase: Uppercase,
	ActionLowercase: Lowercase,
	ActionTitleCase: TitleCase,
}

// ActionNames returns the action names in sorted order, for usage and
// error text.
func ActionNames() []string {
	names := make([]string, 0, len(Transforms))
	for name := range Transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply looks action up in the transform table and applies it to text.
func Apply(action, text string) (string, error) {
	fn, ok := Transforms[action]
	if !ok {
		return "", errors.Wrapf(ErrUnknownAction, "action %q", action)
	}
	return fn(text), nil
}

// Reverse returns s with its characters in reverse order.
func Reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// Uppercase maps every letter in s to upper case. Characters without a
// case pass through unchanged.
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Lowercase maps every letter in s to lower case. Characters without a
// case pass through unchanged.
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// TitleCase upper-cases the first character of every
// whitespace-delimited word and lower-cases the rest. The whitespace
// itself is preserved exactly.
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wordStart := true
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			wordStart = true
			b.WriteRune(r)
		case wordStart:
			wordStart = false
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
