package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NotSure is the stated hypothesis of a user who has no hypothesis yet.
const NotSure = "Not Sure"

const (
	fdArrow     = " => "
	attrSep     = ", "
	constantSep = "="
)

var (
	ErrMalformedHypothesis = errors.New("malformed hypothesis")
	ErrUnmatchedHypothesis = errors.New("hypothesis not in hypothesis space")
)

// FD is an LHS => RHS constraint. LHS and RHS keep the textual order they
// were created with; identity is the unordered attribute sets (see Key).
type FD struct {
	LHS []string `json:"lhs"`
	RHS []string `json:"rhs"`
}

// ParseFD parses the "(A, B) => C, D" form.
func ParseFD(s string) (FD, error) {
	lhsPart, rhsPart, ok := strings.Cut(strings.TrimSpace(s), fdArrow)
	if !ok {
		return FD{}, fmt.Errorf("%w: %q: missing %q", ErrMalformedHypothesis, s, strings.TrimSpace(fdArrow))
	}
	if !strings.HasPrefix(lhsPart, "(") || !strings.HasSuffix(lhsPart, ")") {
		return FD{}, fmt.Errorf("%w: %q: LHS must be parenthesised", ErrMalformedHypothesis, s)
	}

	lhs, err := splitAttrs(lhsPart[1 : len(lhsPart)-1])
	if err != nil {
		return FD{}, fmt.Errorf("%w: %q: %v", ErrMalformedHypothesis, s, err)
	}
	rhs, err := splitAttrs(rhsPart)
	if err != nil {
		return FD{}, fmt.Errorf("%w: %q: %v", ErrMalformedHypothesis, s, err)
	}

	fd := FD{LHS: lhs, RHS: rhs}
	if err := fd.Validate(); err != nil {
		return FD{}, fmt.Errorf("%w: %q: %v", ErrMalformedHypothesis, s, err)
	}
	return fd, nil
}

// MustParseFD is ParseFD for literals known to be well formed.
func MustParseFD(s string) FD {
	fd, err := ParseFD(s)
	if err != nil {
		panic(err)
	}
	return fd
}

func splitAttrs(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	attrs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, errors.New("empty attribute")
		}
		attrs = append(attrs, p)
	}
	return attrs, nil
}

// Validate checks that both sides are non-empty, attributes do not repeat,
// and LHS and RHS are disjoint.
func (f FD) Validate() error {
	if len(f.LHS) == 0 || len(f.RHS) == 0 {
		return errors.New("empty side")
	}
	seen := make(map[string]bool, len(f.LHS)+len(f.RHS))
	for _, a := range f.LHS {
		if seen[AttrName(a)] {
			return fmt.Errorf("attribute %q repeated", a)
		}
		seen[AttrName(a)] = true
	}
	lhs := f.LHSSet()
	rhsSeen := make(map[string]bool, len(f.RHS))
	for _, a := range f.RHS {
		if rhsSeen[AttrName(a)] {
			return fmt.Errorf("attribute %q repeated", a)
		}
		rhsSeen[AttrName(a)] = true
		if lhs[AttrName(a)] {
			return fmt.Errorf("attribute %q on both sides", a)
		}
	}
	return nil
}

func (f FD) String() string {
	return "(" + strings.Join(f.LHS, attrSep) + ")" + fdArrow + strings.Join(f.RHS, attrSep)
}

// Key is the order-independent identity of the constraint.
func (f FD) Key() string {
	return sortedJoin(f.LHS) + "=>" + sortedJoin(f.RHS)
}

// LHSKey identifies the LHS attribute set alone.
func (f FD) LHSKey() string {
	return sortedJoin(f.LHS)
}

func sortedJoin(attrs []string) string {
	c := append([]string(nil), attrs...)
	sort.Strings(c)
	return strings.Join(c, ",")
}

// Equal reports whether both constraints have the same LHS and RHS sets.
func (f FD) Equal(o FD) bool {
	return f.Key() == o.Key()
}

// LHSSet returns the LHS attribute names (CFD constants stripped).
func (f FD) LHSSet() map[string]bool {
	return nameSet(f.LHS)
}

// RHSSet returns the RHS attribute names (CFD constants stripped).
func (f FD) RHSSet() map[string]bool {
	return nameSet(f.RHS)
}

func nameSet(attrs []string) map[string]bool {
	s := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		s[AttrName(a)] = true
	}
	return s
}

// Attributes returns LHS followed by RHS attribute names.
func (f FD) Attributes() []string {
	attrs := make([]string, 0, len(f.LHS)+len(f.RHS))
	for _, a := range f.LHS {
		attrs = append(attrs, AttrName(a))
	}
	for _, a := range f.RHS {
		attrs = append(attrs, AttrName(a))
	}
	return attrs
}

// IsLenientMatch reports whether f is a lenient relative of stated: its LHS
// is a superset of the stated LHS or its RHS a subset of the stated RHS.
func (f FD) IsLenientMatch(stated FD) bool {
	return isSuperset(f.LHSSet(), stated.LHSSet()) || isSuperset(stated.RHSSet(), f.RHSSet())
}

func isSuperset(a, b map[string]bool) bool {
	for k := range b {
		if !a[k] {
			return false
		}
	}
	return true
}

// AttrName strips a CFD constant ("attr=value") down to the attribute name.
func AttrName(token string) string {
	name, _, _ := strings.Cut(token, constantSep)
	return name
}

// AttrConstant returns the constant of a CFD token, if any.
func AttrConstant(token string) (string, bool) {
	_, v, ok := strings.Cut(token, constantSep)
	return v, ok
}

// ParseStated parses a user's stated hypothesis. NotSure yields ok=false.
func ParseStated(s string) (fd FD, ok bool, err error) {
	if strings.TrimSpace(s) == NotSure || strings.TrimSpace(s) == "" {
		return FD{}, false, nil
	}
	fd, err = ParseFD(s)
	if err != nil {
		return FD{}, false, err
	}
	return fd, true, nil
}
