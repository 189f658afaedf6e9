package core

import (
	"slices"
	"strings"
)

// AccountHolder is a configured person that owns loans and services. Free
// text owner/holder fields match a holder through its name or any alias.
type AccountHolder struct {
	ID      string
	Name    string
	Aliases []string
}

// Key is the upper-case lookup key of the holder.
func (h AccountHolder) Key() string {
	return strings.ToUpper(h.Name)
}

// Matches reports whether name equals the holder name or one of its aliases,
// ignoring case. No partial matching.
func (h AccountHolder) Matches(name string) bool {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	if n == h.Key() {
		return true
	}
	for _, a := range h.Aliases {
		if strings.ToUpper(a) == n {
			return true
		}
	}
	return false
}

// Holders is an ordered, upper-case keyed registry of account holders.
type Holders struct {
	order []string
	byKey map[string]AccountHolder
}

func NewHolders(hs ...AccountHolder) Holders {
	reg := Holders{byKey: make(map[string]AccountHolder, len(hs))}
	for _, h := range hs {
		k := h.Key()
		if _, dup := reg.byKey[k]; !dup {
			reg.order = append(reg.order, k)
		}
		reg.byKey[k] = h
	}
	return reg
}

// DefaultHolders returns the two configured household members.
func DefaultHolders() Holders {
	return NewHolders(
		AccountHolder{ID: "ignacio", Name: "IGNACIO", Aliases: []string{"LAFIO", "LOVIO", "IGNACIO", "NACHO"}},
		AccountHolder{ID: "yenniffer", Name: "YENNIFFER", Aliases: []string{"LOVIA", "YENNI", "YENNIFFER"}},
	)
}

// Keys returns the holder keys in configuration order.
func (h Holders) Keys() []string {
	return slices.Clone(h.order)
}

func (h Holders) Len() int { return len(h.order) }

// Lookup finds a holder by id or name, case-insensitively.
func (h Holders) Lookup(id string) (AccountHolder, bool) {
	holder, ok := h.byKey[strings.ToUpper(strings.TrimSpace(id))]
	return holder, ok
}

// Resolve returns the key of the first holder matching a free-text name.
func (h Holders) Resolve(name string) (string, bool) {
	for _, k := range h.order {
		if h.byKey[k].Matches(name) {
			return k, true
		}
	}
	return "", false
}
