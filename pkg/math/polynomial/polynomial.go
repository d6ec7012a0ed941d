// Package polynomial implements dense univariate polynomials over the BN254
// scalar field.
package polynomial

import (
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/luxfi/eos/pkg/math/sample"
)

// Poly holds the coefficients [a₀, …, a_d] of a polynomial, lowest degree
// first. The zero polynomial is the empty slice; the leading coefficient of a
// non-zero polynomial is never zero.
type Poly []fr.Element

// New returns a polynomial with the given coefficients, trimmed of trailing
// zeros.
func New(coeffs []fr.Element) Poly {
	p := make(Poly, len(coeffs))
	copy(p, coeffs)
	return p.trim()
}

// Random samples a uniformly random polynomial of the given degree. The
// constant term is included in the sampling; use RandomWithConstant to pin it.
func Random(degree int, rng io.Reader) (Poly, error) {
	return RandomWithConstant(nil, degree, rng)
}

// RandomWithConstant samples a random polynomial of the given degree whose
// constant term is fixed to c. A nil c leaves the constant term random.
func RandomWithConstant(c *fr.Element, degree int, rng io.Reader) (Poly, error) {
	p := make(Poly, degree+1)
	for i := range p {
		v, err := sample.Fr(rng)
		if err != nil {
			return nil, err
		}
		p[i] = v
	}
	if c != nil {
		p[0].Set(c)
	}
	return p.trim(), nil
}

func (p Poly) trim() Poly {
	n := len(p)
	for n > 0 && p[n-1].IsZero() {
		n--
	}
	return p[:n]
}

// Degree returns the degree of p; the zero polynomial has degree -1.
func (p Poly) Degree() int { return len(p) - 1 }

// IsZero reports whether p is the zero polynomial.
func (p Poly) IsZero() bool { return len(p) == 0 }

// Eval returns p(x) by Horner's rule.
func (p Poly) Eval(x fr.Element) fr.Element {
	var res fr.Element
	if len(p) == 0 {
		return res
	}
	res.Set(&p[len(p)-1])
	for i := len(p) - 2; i >= 0; i-- {
		res.Mul(&res, &x).Add(&res, &p[i])
	}
	return res
}

// Add returns p + q.
func (p Poly) Add(q Poly) Poly {
	long, short := p, q
	if len(q) > len(p) {
		long, short = q, p
	}
	out := make(Poly, len(long))
	copy(out, long)
	for i := range short {
		out[i].Add(&out[i], &short[i])
	}
	return out.trim()
}

// Sub returns p − q.
func (p Poly) Sub(q Poly) Poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(Poly, n)
	copy(out, p)
	for i := range q {
		out[i].Sub(&out[i], &q[i])
	}
	return out.trim()
}

// Mul returns p · q by schoolbook multiplication. Degrees in this engine stay
// small enough that an FFT does not pay for itself.
func (p Poly) Mul(q Poly) Poly {
	if p.IsZero() || q.IsZero() {
		return nil
	}
	out := make(Poly, len(p)+len(q)-1)
	var t fr.Element
	for i := range p {
		for j := range q {
			t.Mul(&p[i], &q[j])
			out[i+j].Add(&out[i+j], &t)
		}
	}
	return out.trim()
}

// ScalarMul returns c · p.
func (p Poly) ScalarMul(c fr.Element) Poly {
	out := make(Poly, len(p))
	for i := range p {
		out[i].Mul(&p[i], &c)
	}
	return out.trim()
}

// DivideByLinear divides p by (x − a) using synthetic division and returns the
// quotient and remainder. The remainder is p(a).
func (p Poly) DivideByLinear(a fr.Element) (quot Poly, rem fr.Element) {
	if len(p) == 0 {
		return nil, rem
	}
	quot = make(Poly, len(p)-1)
	var carry fr.Element
	carry.Set(&p[len(p)-1])
	for i := len(p) - 2; i >= 0; i-- {
		quot[i].Set(&carry)
		carry.Mul(&carry, &a).Add(&carry, &p[i])
	}
	return quot.trim(), carry
}

// Vanishing returns ∏ (x − dᵢ) over the given domain points.
func Vanishing(domain []fr.Element) Poly {
	v := Poly{fr.One()}
	var neg fr.Element
	for i := range domain {
		neg.Neg(&domain[i])
		v = v.Mul(Poly{neg, fr.One()})
	}
	return v
}

// Interpolate returns the unique polynomial of degree < len(points) passing
// through the given (x, y) pairs. The x values must be pairwise distinct.
func Interpolate(xs, ys []fr.Element) Poly {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil
	}
	var acc Poly
	for i := range xs {
		// basis_i = ∏_{j≠i} (x − x_j)/(x_i − x_j), scaled by y_i
		basis := Poly{fr.One()}
		var denom, t fr.Element
		denom.SetOne()
		for j := range xs {
			if j == i {
				continue
			}
			var negXj fr.Element
			negXj.Neg(&xs[j])
			basis = basis.Mul(Poly{negXj, fr.One()})
			t.Sub(&xs[i], &xs[j])
			denom.Mul(&denom, &t)
		}
		denom.Inverse(&denom)
		denom.Mul(&denom, &ys[i])
		acc = acc.Add(basis.ScalarMul(denom))
	}
	return acc
}
