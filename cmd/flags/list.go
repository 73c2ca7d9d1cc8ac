package flags

import (
	"strings"
)

// List is a comma separated list flag. Repeating the flag appends, an empty value clears it.
type List struct {
	Value *[]string
}

func NewList(values string) *List {
	valuesSlice := parse(values)

	return &List{Value: &valuesSlice}
}

func (l *List) Set(values string) error {
	if values == "" {
		*l.Value = make([]string, 0)
	} else {
		*l.Value = append(*l.Value, parse(values)...)
	}

	return nil
}

func (l *List) String() string {
	return "[" + strings.Join(*l.Value, ",") + "]"
}

func (l List) Type() string {
	return "stringSlice"
}

// Values returns nil for an empty list so callers can tell "no filter" from "filter nothing".
func (l *List) Values() []string {
	if l == nil || len(*l.Value) == 0 {
		return nil
	}
	return *l.Value
}

func parse(values string) []string {
	return splitAndTrimEmpty(values, ",", " \t\r\n\b")
}

// SplitAndTrimEmpty slices s into all subslices separated by sep and returns a
// slice of the string s with all leading and trailing Unicode code points
// contained in cutset removed. If sep is empty, SplitAndTrim splits after each
// UTF-8 sequence. First part is equivalent to strings.SplitN with a count of
// -1.  also filter out empty strings, only return non-empty strings.
func splitAndTrimEmpty(s, sep, cutset string) []string {
	if s == "" {
		return []string{}
	}

	spl := strings.Split(s, sep)
	nonEmptyStrings := make([]string, 0, len(spl))

	for i := 0; i < len(spl); i++ {
		element := strings.Trim(spl[i], cutset)
		if element != "" {
			nonEmptyStrings = append(nonEmptyStrings, element)
		}
	}

	return nonEmptyStrings
}
