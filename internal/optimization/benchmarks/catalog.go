package benchmarks

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrNoKnownOptimum is returned when the catalog holds no optimum of the
// requested kind for a function and dimensionality.
var ErrNoKnownOptimum = errors.New("no known optimum")

// Bounds is the suggested search interval, applied to every axis.
type Bounds struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// Entry is the catalog record of one function.
type Entry struct {
	// Minima and Maxima map a dimensionality ("2", "10", ...) or "*" to the
	// known optimum positions.
	Minima map[string][][]float64 `yaml:"minima"`
	Maxima map[string][][]float64 `yaml:"maxima"`
	Bounds *Bounds                `yaml:"bounds"`
}

// Optimum is a known optimum evaluated on a concrete function.
type Optimum struct {
	Value    float64
	Position []float64
}

// Catalog is a read-only store of known optima and suggested bounds. It is
// safe for concurrent use once loaded.
type Catalog struct {
	entries map[string]Entry
	names   []string
}

type catalogFile struct {
	Functions map[string]Entry `yaml:"functions"`
}

// LoadCatalog parses a YAML catalog from r.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding benchmark catalog: %w", err)
	}

	c := &Catalog{entries: make(map[string]Entry, len(file.Functions))}
	for name, entry := range file.Functions {
		if err := checkEntry(name, entry); err != nil {
			return nil, err
		}
		key := normalise(name)
		if _, dup := c.entries[key]; dup {
			return nil, fmt.Errorf("benchmark catalog lists %q twice", name)
		}
		c.entries[key] = entry
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

// DefaultCatalog returns the catalog shipped with the package.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}

func checkEntry(name string, entry Entry) error {
	if b := entry.Bounds; b != nil && !(b.Lower <= b.Upper) {
		return fmt.Errorf("benchmark catalog: %s has inverted bounds [%v, %v]", name, b.Lower, b.Upper)
	}
	for kind, optima := range map[string]map[string][][]float64{"minima": entry.Minima, "maxima": entry.Maxima} {
		for dim, positions := range optima {
			if dim == "*" {
				for _, p := range positions {
					if len(p) == 0 {
						return fmt.Errorf("benchmark catalog: %s %s[*] has an empty position", name, kind)
					}
				}
				continue
			}
			n, err := strconv.Atoi(dim)
			if err != nil || n < 1 {
				return fmt.Errorf("benchmark catalog: %s %s has invalid dimension key %q", name, kind, dim)
			}
			for _, p := range positions {
				if len(p) != n {
					return fmt.Errorf("benchmark catalog: %s %s[%s] has a position of %d dimensions", name, kind, dim, len(p))
				}
			}
		}
	}
	return nil
}

// Names lists the functions in the catalog, sorted.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Minima returns the known minimum positions of name on dims dimensions.
func (c *Catalog) Minima(name string, dims int) [][]float64 {
	entry, ok := c.entries[normalise(name)]
	if !ok {
		return nil
	}
	return positions(entry.Minima, dims)
}

// Maxima returns the known maximum positions of name on dims dimensions.
func (c *Catalog) Maxima(name string, dims int) [][]float64 {
	entry, ok := c.entries[normalise(name)]
	if !ok {
		return nil
	}
	return positions(entry.Maxima, dims)
}

// positions expands a dimension invariant entry by repeating its first
// component and appends the entries recorded for dims itself.
func positions(optima map[string][][]float64, dims int) [][]float64 {
	var out [][]float64
	if inv := optima["*"]; len(inv) > 0 {
		p := make([]float64, dims)
		for i := range p {
			p[i] = inv[0][0]
		}
		out = append(out, p)
	}
	for _, p := range optima[strconv.Itoa(dims)] {
		out = append(out, append([]float64(nil), p...))
	}
	return out
}

// SuggestedBounds returns the suggested search box of name on dims
// dimensions.
func (c *Catalog) SuggestedBounds(name string, dims int) (lower, upper []float64, err error) {
	entry, ok := c.entries[normalise(name)]
	if !ok || entry.Bounds == nil {
		return nil, nil, fmt.Errorf("no suggested bounds for %q", name)
	}
	lower = make([]float64, dims)
	upper = make([]float64, dims)
	for i := 0; i < dims; i++ {
		lower[i] = entry.Bounds.Lower
		upper[i] = entry.Bounds.Upper
	}
	return lower, upper, nil
}

// Minimum evaluates the known optima of fn and returns the lowest one. With
// opposite set fn is treated as negated, so its minima are the catalog's
// maxima.
func (c *Catalog) Minimum(fn Function, opposite bool) (Optimum, error) {
	candidates := c.Minima(fn.Name(), fn.Dimensions())
	if opposite {
		candidates = c.Maxima(fn.Name(), fn.Dimensions())
	}
	return pick(fn, opposite, candidates, func(a, b float64) bool { return a < b })
}

// Maximum evaluates the known optima of fn and returns the highest one. With
// opposite set fn is treated as negated, so its maxima are the catalog's
// minima.
func (c *Catalog) Maximum(fn Function, opposite bool) (Optimum, error) {
	candidates := c.Maxima(fn.Name(), fn.Dimensions())
	if opposite {
		candidates = c.Minima(fn.Name(), fn.Dimensions())
	}
	return pick(fn, opposite, candidates, func(a, b float64) bool { return a > b })
}

func pick(fn Function, opposite bool, candidates [][]float64, better func(a, b float64) bool) (Optimum, error) {
	if len(candidates) == 0 {
		return Optimum{}, fmt.Errorf("%s on %d dimensions: %w", fn.Name(), fn.Dimensions(), ErrNoKnownOptimum)
	}
	objective := Objective(fn, opposite)
	best := Optimum{Value: math.NaN()}
	for _, p := range candidates {
		v, err := objective(p)
		if err != nil {
			return Optimum{}, err
		}
		if math.IsNaN(best.Value) || better(v, best.Value) {
			best = Optimum{Value: v, Position: p}
		}
	}
	return best, nil
}
