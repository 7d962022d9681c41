// Package intent implements a declarative action catalog: named intents with
// fixed trigger phrases mapped onto handler functions. It is an in-process
// registry, not an OS shortcut integration; hosts enumerate the catalog and
// dispatch matched utterances through it.
package intent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Input carries the matched utterance plus optional structured arguments.
type Input struct {
	Utterance string
	Args      map[string]string
}

// Result is a handler's textual outcome.
type Result struct {
	Text string
}

// HandlerFunc executes an intent.
type HandlerFunc func(ctx context.Context, in Input) (*Result, error)

// Intent is a named action with its trigger phrases.
type Intent struct {
	Name    string
	Phrases []string
	Handler HandlerFunc
}

// Catalog is a registry of intents keyed by name. Safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	intents map[string]Intent
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{intents: make(map[string]Intent)}
}

// Register adds an intent; a duplicate name is an error.
func (c *Catalog) Register(in Intent) error {
	if in.Name == "" {
		return fmt.Errorf("intent: empty name")
	}
	if in.Handler == nil {
		return fmt.Errorf("intent: %s has no handler", in.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.intents[in.Name]; exists {
		return fmt.Errorf("intent: %s already registered", in.Name)
	}
	c.intents[in.Name] = in
	return nil
}

// Lookup returns an intent by name.
func (c *Catalog) Lookup(name string) (Intent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	in, ok := c.intents[name]
	return in, ok
}

// Names returns registered intent names sorted alphabetically.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.intents))
	for name := range c.intents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Match finds the intent whose phrase prefixes the utterance
// (case-insensitive). When several phrases match, the longest phrase wins.
// The remainder of the utterance after the phrase is returned trimmed.
func (c *Catalog) Match(utterance string) (Intent, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	trimmed := strings.TrimSpace(utterance)
	var best Intent
	bestEnd := -1
	for _, in := range c.intents {
		for _, phrase := range in.Phrases {
			end, ok := foldPrefix(trimmed, phrase)
			if !ok {
				continue
			}
			if end > bestEnd {
				best = in
				bestEnd = end
			}
		}
	}
	if bestEnd < 0 {
		return Intent{}, "", false
	}
	return best, strings.TrimSpace(trimmed[bestEnd:]), true
}

// foldPrefix reports whether phrase prefixes s under per-rune case folding,
// returning the byte offset in s just past the match. Working in byte offsets
// of s keeps the remainder slice on a rune boundary even when lowercasing
// would change a rune's encoded length.
func foldPrefix(s, phrase string) (int, bool) {
	off := 0
	for _, pr := range phrase {
		r, size := utf8.DecodeRuneInString(s[off:])
		if size == 0 {
			return 0, false
		}
		if r != pr && unicode.ToLower(r) != unicode.ToLower(pr) {
			return 0, false
		}
		off += size
	}
	return off, true
}

// Dispatch matches the utterance and runs the winning intent's handler with
// the remainder of the utterance as input.
func (c *Catalog) Dispatch(ctx context.Context, utterance string) (*Result, error) {
	in, rest, ok := c.Match(utterance)
	if !ok {
		return nil, fmt.Errorf("intent: no match for %q", utterance)
	}
	return in.Handler(ctx, Input{Utterance: rest})
}
