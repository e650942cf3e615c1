// Package benchmarks provides the classic continuous test functions used to
// exercise the bees optimizer, together with a catalog of their known optima.
package benchmarks

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/heng-zhai/MSc-project/internal/optimization"
)

const component = "benchmarks"

// Function is a benchmark objective defined on a fixed number of dimensions.
// The raw value is returned; lower is better for every function here.
type Function interface {
	// Name returns the canonical name of the function.
	Name() string

	// Dimensions returns the dimensionality the function was declared for.
	Dimensions() int

	// Evaluate computes the function at point after validating it.
	Evaluate(point []float64) (float64, error)
}

// Objective adapts fn to an optimization.ObjectiveFunction. With opposite set
// the value is negated, which turns a minimisation benchmark into a
// maximisation problem for the optimizer.
func Objective(fn Function, opposite bool) optimization.ObjectiveFunction {
	return func(point []float64) (float64, error) {
		v, err := fn.Evaluate(point)
		if err != nil {
			return 0, err
		}
		if opposite {
			return -v, nil
		}
		return v, nil
	}
}

// base carries the name and dimensionality shared by every function.
type base struct {
	name string
	dims int
}

func (b base) Name() string    { return b.name }
func (b base) Dimensions() int { return b.dims }

// validate rejects points of the wrong length and points with NaN or
// infinite components.
func (b base) validate(point []float64) error {
	if len(point) != b.dims {
		return optimization.InvalidPointf("function %s declared for %d dimensions, asked to evaluate a point of %d dimensions",
			b.name, b.dims, len(point)).
			WithComponent(component).
			WithOperation("Evaluate")
	}
	for i, v := range point {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return optimization.InvalidPointf("function %s can only be evaluated on finite values, component %d is %v",
				b.name, i, v).
				WithComponent(component).
				WithOperation("Evaluate")
		}
	}
	return nil
}

// Ackley is continuous and highly multimodal with its global minimum at the
// origin surrounded by many symmetrical local minima.
type Ackley struct {
	base
	A, B, C float64
}

// NewAckley returns Ackley on n dimensions with a=20, b=0.2 and c=2π.
func NewAckley(n int) *Ackley {
	return &Ackley{base: base{name: "Ackley", dims: n}, A: 20, B: 0.2, C: 2 * math.Pi}
}

// Evaluate implements Function.
func (f *Ackley) Evaluate(point []float64) (float64, error) {
	if err := f.validate(point); err != nil {
		return 0, err
	}
	var squares, cosines float64
	for _, x := range point {
		squares += x * x
		cosines += math.Cos(f.C * x)
	}
	n := float64(len(point))
	return -f.A*math.Exp(-f.B*math.Sqrt(squares/n)) - math.Exp(cosines/n) + f.A + math.E, nil
}

// Schaffer is the two dimensional Schaffer N.2 variant with a minimum of 0 at
// the origin.
type Schaffer struct{ base }

// NewSchaffer returns the Schaffer function.
func NewSchaffer() *Schaffer {
	return &Schaffer{base{name: "Schaffer", dims: 2}}
}

// Evaluate implements Function.
func (f *Schaffer) Evaluate(point []float64) (float64, error) {
	if err := f.validate(point); err != nil {
		return 0, err
	}
	r2 := point[0]*point[0] + point[1]*point[1]
	s := math.Sin(math.Sqrt(r2))
	d := 1 + 0.001*r2
	return 0.5 + (s*s-0.5)/(d*d), nil
}

// Schwefel is highly multimodal with minima that lie far apart.
type Schwefel struct{ base }

// NewSchwefel returns Schwefel on n dimensions.
func NewSchwefel(n int) *Schwefel {
	return &Schwefel{base{name: "Schwefel", dims: n}}
}

// Evaluate implements Function.
func (f *Schwefel) Evaluate(point []float64) (float64, error) {
	if err := f.validate(point); err != nil {
		return 0, err
	}
	var sum float64
	for _, x := range point {
		sum -= x * math.Sin(math.Sqrt(math.Abs(x)))
	}
	return sum, nil
}

// Easom is mostly a plateau, with the global minimum of -1 in a small area
// around (π, π).
type Easom struct{ base }

// NewEasom returns the Easom function.
func NewEasom() *Easom {
	return &Easom{base{name: "Easom", dims: 2}}
}

// Evaluate implements Function.
func (f *Easom) Evaluate(point []float64) (float64, error) {
	if err := f.validate(point); err != nil {
		return 0, err
	}
	x, y := point[0], point[1]
	dx, dy := x-math.Pi, y-math.Pi
	return -math.Cos(x) * math.Cos(y) * math.Exp(-dx*dx-dy*dy), nil
}

// GoldsteinPrice has a steep asymmetric slope and its minimum of 3 at (0, -1).
type GoldsteinPrice struct{ base }

// NewGoldsteinPrice returns the Goldstein-Price function.
func NewGoldsteinPrice() *GoldsteinPrice {
	return &GoldsteinPrice{base{name: "GoldsteinPrice", dims: 2}}
}

// Evaluate implements Function.
func (f *GoldsteinPrice) Evaluate(point []float64) (float64, error) {
	if err := f.validate(point); err != nil {
		return 0, err
	}
	x, y := point[0], point[1]
	s := x + y + 1
	d := 2*x - 3*y
	a := 1 + s*s*(19-14*x+3*x*x-14*y+6*x*y+3*y*y)
	b := 30 + d*d*(18-32*x+12*x*x+48*y-36*x*y+27*y*y)
	return a * b, nil
}

// Rastrigin is highly multimodal with regularly distributed minima.
type Rastrigin struct{ base }

// NewRastrigin returns Rastrigin on n dimensions.
func NewRastrigin(n int) *Rastrigin {
	return &Rastrigin{base{name: "Rastrigin", dims: n}}
}

// Evaluate implements Function.
func (f *Rastrigin) Evaluate(point []float64) (float64, error) {
	if err := f.validate(point); err != nil {
		return 0, err
	}
	sum := 10 * float64(len(point))
	for _, x := range point {
		sum += x*x - 10*math.Cos(2*math.Pi*x)
	}
	return sum, nil
}

// Hypersphere is the convex sum of squares.
type Hypersphere struct{ base }

// NewHypersphere returns Hypersphere on n dimensions.
func NewHypersphere(n int) *Hypersphere {
	return &Hypersphere{base{name: "Hypersphere", dims: n}}
}

// Evaluate implements Function.
func (f *Hypersphere) Evaluate(point []float64) (float64, error) {
	if err := f.validate(point); err != nil {
		return 0, err
	}
	return floats.Dot(point, point), nil
}

// MartinGaddy is a two dimensional bowl with its minimum of 0 at (5, 5).
type MartinGaddy struct{ base }

// NewMartinGaddy returns the Martin-Gaddy function.
func NewMartinGaddy() *MartinGaddy {
	return &MartinGaddy{base{name: "MartinGaddy", dims: 2}}
}

// Evaluate implements Function.
func (f *MartinGaddy) Evaluate(point []float64) (float64, error) {
	if err := f.validate(point); err != nil {
		return 0, err
	}
	x, y := point[0], point[1]
	a := x - y
	b := (x + y - 10) / 3
	return a*a + b*b, nil
}

type constructor struct {
	fixed int // 0 when the function accepts any dimensionality
	build func(n int) Function
}

var registry = map[string]constructor{
	"ackley":         {build: func(n int) Function { return NewAckley(n) }},
	"schaffer":       {fixed: 2, build: func(int) Function { return NewSchaffer() }},
	"schwefel":       {build: func(n int) Function { return NewSchwefel(n) }},
	"easom":          {fixed: 2, build: func(int) Function { return NewEasom() }},
	"goldsteinprice": {fixed: 2, build: func(int) Function { return NewGoldsteinPrice() }},
	"rastrigin":      {build: func(n int) Function { return NewRastrigin(n) }},
	"hypersphere":    {build: func(n int) Function { return NewHypersphere(n) }},
	"martingaddy":    {fixed: 2, build: func(int) Function { return NewMartinGaddy() }},
}

// normalise folds "Goldstein and Price", "goldstein-price" and
// "GoldsteinPrice" onto the same registry key.
func normalise(name string) string {
	key := strings.ToLower(name)
	key = strings.ReplaceAll(key, " and ", "")
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
}

// New returns the function called name on dims dimensions. Names are matched
// case-insensitively. Two dimensional functions only accept dims == 2.
func New(name string, dims int) (Function, error) {
	c, ok := registry[normalise(name)]
	if !ok {
		return nil, optimization.InvalidConfigurationf("unknown benchmark function %q", name).
			WithComponent(component).
			WithOperation("New")
	}
	if dims < 1 {
		return nil, optimization.InvalidConfigurationf("benchmark %s needs at least one dimension, got %d", name, dims).
			WithComponent(component).
			WithOperation("New")
	}
	if c.fixed != 0 && dims != c.fixed {
		return nil, optimization.InvalidConfigurationf("benchmark %s is only defined for %d dimensions, got %d", name, c.fixed, dims).
			WithComponent(component).
			WithOperation("New")
	}
	return c.build(dims), nil
}

// Info describes a function available through New.
type Info struct {
	Name string `json:"name" yaml:"name"`
	// FixedDimensions is 0 when the function accepts any dimensionality.
	FixedDimensions int `json:"fixed_dimensions,omitempty" yaml:"fixed_dimensions,omitempty"`
}

// Available lists the functions New can build, sorted by name.
func Available() []Info {
	out := make([]Info, 0, len(registry))
	for _, c := range registry {
		dims := c.fixed
		if dims == 0 {
			dims = 2
		}
		out = append(out, Info{Name: c.build(dims).Name(), FixedDimensions: c.fixed})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
