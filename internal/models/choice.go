package models

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Option is one stored value and its display label.
type Option struct {
	Value int
	Label string
}

// Options is a closed, ordered enumeration.
type Options []Option

func (o Options) Label(v int) (string, bool) {
	for _, opt := range o {
		if opt.Value == v {
			return opt.Label, true
		}
	}
	return "", false
}

func (o Options) Contains(v int) bool {
	_, ok := o.Label(v)
	return ok
}

func (o Options) Values() []int {
	vals := make([]int, len(o))
	for i, opt := range o {
		vals[i] = opt.Value
	}
	return vals
}

// OptionSet binds a column type to its enumeration at definition time.
type OptionSet interface {
	Options() Options
}

// An OptionSet may also implement AllowUnspecified to accept any integer.
type unspecifiedAllowed interface {
	AllowUnspecified() bool
}

// ValidationError is returned when a value is not part of a Choice enumeration.
type ValidationError struct {
	Value   string
	Options Options
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%q not a valid option out of %v", e.Value, e.Options.Values())
}

func optionsOf[O OptionSet]() Options {
	var o O
	return o.Options()
}

func allowsUnspecified[O OptionSet]() bool {
	var o O
	if u, ok := any(o).(unspecifiedAllowed); ok {
		return u.AllowUnspecified()
	}
	return false
}

// Choice is an integer column restricted to the values of O.
type Choice[O OptionSet] int

// ParseChoice converts raw input into a Choice, rejecting values outside O.
func ParseChoice[O OptionSet](raw string) (Choice[O], error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0, &ValidationError{Value: raw, Options: optionsOf[O]()}
		}
		n = int(f)
	}
	c := Choice[O](n)
	if err := c.Valid(); err != nil {
		return 0, err
	}
	return c, nil
}

func (c Choice[O]) Int() int {
	return int(c)
}

func (c Choice[O]) Valid() error {
	if allowsUnspecified[O]() || optionsOf[O]().Contains(int(c)) {
		return nil
	}
	return &ValidationError{Value: strconv.Itoa(int(c)), Options: optionsOf[O]()}
}

// Label fails when the stored integer has no label in O.
func (c Choice[O]) Label() (string, error) {
	label, ok := optionsOf[O]().Label(int(c))
	if !ok {
		return "", fmt.Errorf("no label for %d", int(c))
	}
	return label, nil
}

func (c Choice[O]) String() string {
	if label, ok := optionsOf[O]().Label(int(c)); ok {
		return label
	}
	return "<nonstandard>"
}

func (c Choice[O]) Value() (driver.Value, error) {
	if err := c.Valid(); err != nil {
		return nil, err
	}
	return int64(c), nil
}

func (c *Choice[O]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = 0
	case int64:
		*c = Choice[O](v)
	case float64:
		*c = Choice[O](int(v))
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("scan choice: %w", err)
		}
		*c = Choice[O](n)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("scan choice: %w", err)
		}
		*c = Choice[O](n)
	default:
		return fmt.Errorf("scan choice: unsupported type %T", src)
	}
	return nil
}

// MultiChoice stores a set of O values as a canonical comma-joined string.
// Membership is not validated on write; stale values are dropped on read.
type MultiChoice[O OptionSet] string

// NewMultiChoice builds a canonical MultiChoice from a sequence of values.
func NewMultiChoice[O OptionSet](vals ...int) MultiChoice[O] {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return MultiChoice[O](normalizeMulti(strings.Join(parts, ",")))
}

// ParseMultiChoice normalizes a pre-joined string.
func ParseMultiChoice[O OptionSet](joined string) MultiChoice[O] {
	return MultiChoice[O](normalizeMulti(joined))
}

func normalizeMulti(joined string) string {
	seen := map[string]bool{}
	var tokens []string
	for _, tok := range strings.Split(joined, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		a, aerr := strconv.Atoi(tokens[i])
		b, berr := strconv.Atoi(tokens[j])
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		}
		return tokens[i] < tokens[j]
	})
	return strings.Join(tokens, ",")
}

// Ints returns the stored values still present in O.
func (m MultiChoice[O]) Ints() []int {
	opts := optionsOf[O]()
	var ints []int
	for _, tok := range strings.Split(string(m), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || !opts.Contains(n) {
			continue
		}
		ints = append(ints, n)
	}
	return ints
}

// Labels returns the sorted labels of Ints.
func (m MultiChoice[O]) Labels() []string {
	opts := optionsOf[O]()
	var labels []string
	for _, n := range m.Ints() {
		label, _ := opts.Label(n)
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (m MultiChoice[O]) Has(v int) bool {
	for _, n := range m.Ints() {
		if n == v {
			return true
		}
	}
	return false
}

func (m MultiChoice[O]) With(v int) MultiChoice[O] {
	return MultiChoice[O](normalizeMulti(string(m) + "," + strconv.Itoa(v)))
}

func (m MultiChoice[O]) Without(v int) MultiChoice[O] {
	var keep []int
	for _, n := range m.Ints() {
		if n != v {
			keep = append(keep, n)
		}
	}
	return NewMultiChoice[O](keep...)
}

// Display renders the stored values as comma-joined labels. A token that is
// not an integer is an error; integers unknown to O are skipped.
func (m MultiChoice[O]) Display() (string, error) {
	if m == "" {
		return "", nil
	}
	opts := optionsOf[O]()
	var labels []string
	for _, tok := range strings.Split(string(m), ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return "", fmt.Errorf("malformed option %q: %w", tok, err)
		}
		if label, ok := opts.Label(n); ok {
			labels = append(labels, label)
		}
	}
	return strings.Join(labels, ","), nil
}

func (m MultiChoice[O]) Value() (driver.Value, error) {
	return normalizeMulti(string(m)), nil
}

func (m *MultiChoice[O]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = ""
	case string:
		*m = MultiChoice[O](v)
	case []byte:
		*m = MultiChoice[O](string(v))
	default:
		return fmt.Errorf("scan multichoice: unsupported type %T", src)
	}
	return nil
}
