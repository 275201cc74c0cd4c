package matching

import (
	"errors"
	"fmt"
)

// Method identifies which identifier produced a match.
type Method string

const (
	MethodEAN  Method = "ean"
	MethodMPN  Method = "mpn"
	MethodName Method = "name"
)

// AllMethods in default priority order.
var AllMethods = []Method{MethodEAN, MethodMPN, MethodName}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m == MethodEAN || m == MethodMPN || m == MethodName
}

// ErrNoMethodEnabled is returned by Validate when every method is switched off.
var ErrNoMethodEnabled = errors.New("at least one match method must be enabled")

// Options selects and orders the match methods for an import.
type Options struct {
	UseEAN   bool     `json:"useEan"`
	UseMPN   bool     `json:"useMpn"`
	UseName  bool     `json:"useName"`
	Priority []Method `json:"priority"`
}

// DefaultOptions enables every method in the order EAN, MPN, name.
func DefaultOptions() Options {
	return Options{UseEAN: true, UseMPN: true, UseName: true, Priority: append([]Method(nil), AllMethods...)}
}

// Enabled reports whether m is switched on.
func (o Options) Enabled(m Method) bool {
	switch m {
	case MethodEAN:
		return o.UseEAN
	case MethodMPN:
		return o.UseMPN
	case MethodName:
		return o.UseName
	}
	return false
}

// SetEnabled toggles a method. Switching off the last enabled method leaves
// it on, so a configuration can never disable matching entirely.
func (o *Options) SetEnabled(m Method, enabled bool) {
	o.set(m, enabled)
	if !o.UseEAN && !o.UseMPN && !o.UseName {
		o.set(m, true)
	}
}

func (o *Options) set(m Method, v bool) {
	switch m {
	case MethodEAN:
		o.UseEAN = v
	case MethodMPN:
		o.UseMPN = v
	case MethodName:
		o.UseName = v
	}
}

// Validate checks the options as received from an API caller.
func (o Options) Validate() error {
	if !o.UseEAN && !o.UseMPN && !o.UseName {
		return ErrNoMethodEnabled
	}
	seen := make(map[Method]bool, len(o.Priority))
	for _, m := range o.Priority {
		if !m.Valid() {
			return fmt.Errorf("unknown match method %q", m)
		}
		if seen[m] {
			return fmt.Errorf("match method %q listed twice in priority", m)
		}
		seen[m] = true
	}
	return nil
}

// EffectivePriority returns the enabled methods in priority order. Enabled
// methods missing from Priority are appended in default order.
func (o Options) EffectivePriority() []Method {
	out := make([]Method, 0, len(AllMethods))
	seen := make(map[Method]bool, len(AllMethods))
	for _, m := range append(append([]Method(nil), o.Priority...), AllMethods...) {
		if seen[m] || !m.Valid() || !o.Enabled(m) {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
