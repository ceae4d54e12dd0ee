// Package labels maps keyboard shortcuts to label names and turns shortcut
// presses into marks at the current playback position.
package labels

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/bubbles/key"
)

var (
	ErrInvalidBinding   = errors.New("invalid binding")
	ErrDuplicateBinding = errors.New("shortcut already bound")
	ErrUnboundShortcut  = errors.New("shortcut not bound")
)

// maxSuggestDistance bounds how far a typo may be from a bound combo.
const maxSuggestDistance = 2

var modifierOrder = []string{"ctrl", "alt", "shift", "meta"}

var modifierAliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"opt":     "alt",
	"cmd":     "meta",
	"command": "meta",
	"super":   "meta",
	"win":     "meta",
}

// Combo is a normalised key combination such as "ctrl+shift+k".
type Combo string

func (c Combo) String() string { return string(c) }

// ParseCombo normalises a user-typed combination: lower case, aliases
// folded, modifiers ordered ctrl, alt, shift, meta, then the key.
func ParseCombo(s string) (Combo, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	mods := make(map[string]bool)
	var keyName string

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return "", fmt.Errorf("%w: empty key in %q", ErrInvalidBinding, s)
		}
		if alias, ok := modifierAliases[p]; ok {
			p = alias
		}
		if slices.Contains(modifierOrder, p) {
			mods[p] = true
			continue
		}
		if keyName != "" {
			return "", fmt.Errorf("%w: more than one key in %q", ErrInvalidBinding, s)
		}
		keyName = p
	}
	if keyName == "" {
		return "", fmt.Errorf("%w: no key in %q", ErrInvalidBinding, s)
	}

	out := make([]string, 0, len(mods)+1)
	for _, m := range modifierOrder {
		if mods[m] {
			out = append(out, m)
		}
	}
	out = append(out, keyName)
	return Combo(strings.Join(out, "+")), nil
}

// Binding is one shortcut to label association.
type Binding struct {
	Combo Combo  `json:"combo" yaml:"combo"`
	Label string `json:"label" yaml:"label"`
}

// Registry holds one label per shortcut. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[Combo]key.Binding
}

func NewRegistry() *Registry {
	return &Registry{bindings: make(map[Combo]key.Binding)}
}

// Bind associates combo with label. Rebinding a combo to the same label is
// a no-op; binding it to a different label is ErrDuplicateBinding.
func (r *Registry) Bind(combo, label string) (Binding, error) {
	c, err := ParseCombo(combo)
	if err != nil {
		return Binding{}, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return Binding{}, fmt.Errorf("%w: empty label for %s", ErrInvalidBinding, c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.bindings[c]; ok {
		if existing.Help().Desc == label {
			return Binding{Combo: c, Label: label}, nil
		}
		return Binding{}, fmt.Errorf("%w: %s is bound to %q", ErrDuplicateBinding, c, existing.Help().Desc)
	}

	r.bindings[c] = key.NewBinding(
		key.WithKeys(string(c)),
		key.WithHelp(string(c), label),
	)
	return Binding{Combo: c, Label: label}, nil
}

// Unbind removes a binding and reports whether one existed.
func (r *Registry) Unbind(combo string) (bool, error) {
	c, err := ParseCombo(combo)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.bindings[c]
	delete(r.bindings, c)
	return ok, nil
}

// Lookup returns the label bound to combo.
func (r *Registry) Lookup(combo string) (string, bool) {
	c, err := ParseCombo(combo)
	if err != nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[c]
	if !ok || !b.Enabled() {
		return "", false
	}
	return b.Help().Desc, true
}

// Bindings returns all bindings sorted by combo.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Binding, 0, len(r.bindings))
	for c, b := range r.bindings {
		out = append(out, Binding{Combo: c, Label: b.Help().Desc})
	}
	slices.SortFunc(out, func(a, b Binding) int {
		return strings.Compare(string(a.Combo), string(b.Combo))
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Suggest returns the bound combo closest to s, for "did you mean" hints.
func (r *Registry) Suggest(s string) (Combo, bool) {
	target := strings.ToLower(strings.TrimSpace(s))
	if c, err := ParseCombo(s); err == nil {
		target = string(c)
	}

	best := Combo("")
	bestDist := maxSuggestDistance + 1
	for _, b := range r.Bindings() {
		d := levenshtein.ComputeDistance(target, string(b.Combo))
		if d < bestDist || (d == bestDist && b.Combo < best) {
			best, bestDist = b.Combo, d
		}
	}
	return best, best != ""
}
