// Package circuit defines the arithmetic circuits evaluated by the MPC
// executor: a topologically sorted gate list over integer wire indices.
package circuit

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/party"
)

// GateKind enumerates the supported gate types.
type GateKind uint8

const (
	InputPublic GateKind = iota + 1
	InputPrivate
	Add
	Mul
	Output
	Const
	Eq
)

func (k GateKind) String() string {
	switch k {
	case InputPublic:
		return "input_public"
	case InputPrivate:
		return "input_private"
	case Add:
		return "add"
	case Mul:
		return "mul"
	case Output:
		return "output"
	case Const:
		return "const"
	case Eq:
		return "eq"
	default:
		return fmt.Sprintf("gate(%d)", uint8(k))
	}
}

// Gate is one node of the circuit DAG. A and B refer to earlier wires; the
// gate's own output wire is its index in the gate list.
type Gate struct {
	Kind  GateKind
	A, B  int
	Value fr.Element // Const and InputPublic payload
	Owner party.ID   // InputPrivate: the party contributing the value
}

// Circuit is a directed acyclic graph of gates in topological order.
type Circuit struct {
	Gates []Gate
}

var errEmpty = errors.New("circuit: empty circuit")

// Validate checks the topological-order invariant: every non-input gate's
// operands refer to strictly lower wire indices.
func (c *Circuit) Validate() error {
	if len(c.Gates) == 0 {
		return errEmpty
	}
	for i, g := range c.Gates {
		switch g.Kind {
		case InputPublic, InputPrivate, Const:
			// no operands
		case Add, Mul, Eq:
			if g.A >= i || g.B >= i || g.A < 0 || g.B < 0 {
				return fmt.Errorf("circuit: gate %d (%v) refers to wire out of order", i, g.Kind)
			}
		case Output:
			if g.A >= i || g.A < 0 {
				return fmt.Errorf("circuit: gate %d (output) refers to wire out of order", i)
			}
		default:
			return fmt.Errorf("circuit: gate %d has unknown kind %v", i, g.Kind)
		}
	}
	return nil
}

// NumWires returns the number of wires (= gates).
func (c *Circuit) NumWires() int { return len(c.Gates) }

// NumMul returns the number of multiplication gates, which drives the
// Beaver-triple preprocessing batch size.
func (c *Circuit) NumMul() int {
	n := 0
	for _, g := range c.Gates {
		if g.Kind == Mul {
			n++
		}
	}
	return n
}

// Outputs returns the wire indices feeding Output gates, in order.
func (c *Circuit) Outputs() []int {
	var out []int
	for _, g := range c.Gates {
		if g.Kind == Output {
			out = append(out, g.A)
		}
	}
	return out
}

// Builder assembles a circuit gate by gate, returning wire indices.
type Builder struct {
	c Circuit
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) push(g Gate) int {
	b.c.Gates = append(b.c.Gates, g)
	return len(b.c.Gates) - 1
}

// PublicInput adds a public input wire carrying value.
func (b *Builder) PublicInput(value fr.Element) int {
	return b.push(Gate{Kind: InputPublic, Value: value})
}

// PrivateInput adds a private input wire contributed by owner.
func (b *Builder) PrivateInput(owner party.ID) int {
	return b.push(Gate{Kind: InputPrivate, Owner: owner})
}

// Add adds an addition gate over wires x and y.
func (b *Builder) Add(x, y int) int { return b.push(Gate{Kind: Add, A: x, B: y}) }

// Mul adds a multiplication gate over wires x and y.
func (b *Builder) Mul(x, y int) int { return b.push(Gate{Kind: Mul, A: x, B: y}) }

// Constant adds a constant wire.
func (b *Builder) Constant(value fr.Element) int {
	return b.push(Gate{Kind: Const, Value: value})
}

// Eq adds an equality-assertion gate over wires x and y; the session rejects
// if the wires carry different values.
func (b *Builder) Eq(x, y int) int { return b.push(Gate{Kind: Eq, A: x, B: y}) }

// Output marks wire x as a circuit output.
func (b *Builder) Output(x int) int { return b.push(Gate{Kind: Output, A: x}) }

// Build validates and returns the assembled circuit.
func (b *Builder) Build() (*Circuit, error) {
	c := b.c
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SquarePlus returns the demo circuit computing x·x + y on two private
// inputs, owned by the given parties.
func SquarePlus(xOwner, yOwner party.ID) *Circuit {
	b := NewBuilder()
	x := b.PrivateInput(xOwner)
	y := b.PrivateInput(yOwner)
	xx := b.Mul(x, x)
	sum := b.Add(xx, y)
	b.Output(sum)
	c, _ := b.Build()
	return c
}
