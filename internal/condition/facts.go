package condition

import (
	"errors"
	"fmt"
	"sort"
)

// FactContext maps fact names to values. Declared but unextracted facts
// are present with a null value, so a condition can test them with
// "x == null" instead of failing on an unknown name
type FactContext map[string]Value

// NewFactContext builds a context holding every name in schema. Extracted
// values for undeclared names are ignored. Values that cannot be converted
// are left null and reported in the returned error; the context is usable
// either way
func NewFactContext(schema []string, extracted map[string]any) (FactContext, error) {
	ctx := make(FactContext, len(schema))
	var errs []error
	for _, name := range schema {
		raw, ok := extracted[name]
		if !ok {
			ctx[name] = Null()
			continue
		}
		v, err := FromAny(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("fact %q: %w", name, err))
		}
		ctx[name] = v
	}
	return ctx, errors.Join(errs...)
}

// Names returns the fact names in sorted order
func (c FactContext) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
