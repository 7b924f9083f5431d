package protocol

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/janisvco/stepfeed/internal/readings"
)

// Codec applies event frames to a readings.Writer using a rule table.
type Codec struct {
	rules map[string]Rule
	order []string
}

// NewCodec builds a codec from rules. Entity ids must be unique and non-empty.
func NewCodec(rules ...Rule) (*Codec, error) {
	c := &Codec{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		if r.EntityID == "" {
			return nil, fmt.Errorf("rule with empty entity id")
		}
		if r.Apply == nil {
			return nil, fmt.Errorf("rule %s: nil apply func", r.EntityID)
		}
		if _, dup := c.rules[r.EntityID]; dup {
			return nil, fmt.Errorf("duplicate rule for %s", r.EntityID)
		}
		c.rules[r.EntityID] = r
		c.order = append(c.order, r.EntityID)
	}
	return c, nil
}

// DefaultCodec returns a codec for the six monitored entities.
func DefaultCodec() *Codec {
	rules := make([]Rule, 0, len(DefaultEntities))
	for _, e := range DefaultEntities {
		r, _ := RuleFor(e.Field, e.EntityID)
		rules = append(rules, r)
	}
	c, err := NewCodec(rules...)
	if err != nil {
		panic(err)
	}
	return c
}

// EntityIDs returns the monitored ids in subscription order.
func (c *Codec) EntityIDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Apply writes every recognised entity value in f to w and returns the number
// of fields written. Unknown entities, wrong kinds and the unavailable
// sentinel are skipped.
func (c *Codec) Apply(f Frame, w readings.Writer) int {
	if f.Type != TypeEvent || f.Event == nil {
		return 0
	}

	written := 0
	for _, id := range sortedKeys(f.Event.Snapshot) {
		rule, ok := c.rules[id]
		if !ok {
			continue
		}
		var entry snapshotEntry
		if err := json.Unmarshal(f.Event.Snapshot[id], &entry); err != nil || len(entry.S) == 0 {
			continue
		}
		if v, ok := snapshotValue(rule.Kind, parseScalar(entry.S)); ok {
			rule.Apply(w, v)
			written++
		}
	}

	for _, id := range sortedKeys(f.Event.Delta) {
		rule, ok := c.rules[id]
		if !ok {
			continue
		}
		var entry deltaEntry
		// Attribute-only changes carry no "s" and leave the reading alone.
		if err := json.Unmarshal(f.Event.Delta[id], &entry); err != nil || entry.Plus == nil || len(entry.Plus.S) == 0 {
			continue
		}
		if v, ok := deltaValue(rule.Kind, parseScalar(entry.Plus.S)); ok {
			rule.Apply(w, v)
			written++
		}
	}

	return written
}

// snapshotValue converts a snapshot value. Numeric kinds must arrive as JSON
// numbers; flags compare against "on".
func snapshotValue(kind Kind, s scalar) (Value, bool) {
	if s.isString && s.str == Unavailable {
		return Value{}, false
	}
	switch kind {
	case KindInteger:
		if !s.isNumber {
			return Value{}, false
		}
		n, ok := parseInteger(s.num.String())
		return Value{Integer: n}, ok
	case KindReal:
		if !s.isNumber {
			return Value{}, false
		}
		f, ok := parseReal(s.num.String())
		return Value{Real: f}, ok
	case KindFlag:
		return Value{Flag: s.isString && s.str == "on"}, true
	default:
		return Value{}, false
	}
}

// deltaValue converts a delta value. Numeric kinds accept numbers and numeric
// strings.
func deltaValue(kind Kind, s scalar) (Value, bool) {
	switch kind {
	case KindInteger:
		text, ok := s.text()
		if !ok {
			return Value{}, false
		}
		n, ok := parseInteger(text)
		return Value{Integer: n}, ok
	case KindReal:
		text, ok := s.text()
		if !ok {
			return Value{}, false
		}
		f, ok := parseReal(text)
		return Value{Real: f}, ok
	case KindFlag:
		return Value{Flag: s.isString && s.str == "on"}, true
	default:
		return Value{}, false
	}
}

// sortedKeys gives a deterministic application order within one envelope.
func sortedKeys(m map[string]json.RawMessage) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
