package value

import (
	"fmt"
	"math"
	"math/big"
)

// FixedKind describes a binary fixed-point family fxM.N: M integer bits
// and N fractional bits packed into a two's-complement integer of total
// Width = M+N bits (the conventional Q-format reading of fxM.N; see
// DESIGN.md's Open Questions for why spec.md's literal wording is
// followed this way).
type FixedKind struct {
	Width  int // M+N, total bit width
	Frac   int // N
	Policy OverflowPolicy
}

// Literal builds a FixedValue from raw two's-complement bits (construction,
// not arithmetic — no attribute is set).
func (k FixedKind) Literal(bits int64) Value {
	return FixedValue{kind: k, bits: truncate(bits, k.Width, true)}
}

// FromFloat rounds f to the nearest representable fxM.N value.
func (k FixedKind) FromFloat(f float64) Value {
	scaled := f * math.Pow(2, float64(k.Frac))
	return k.Literal(int64(math.Round(scaled)))
}

// Invalid builds a FixedValue carrying AttrInvalid.
func (k FixedKind) Invalid() Value {
	return FixedValue{kind: k, attr: AttrInvalid}
}

// FixedValue is a binary fixed-point value: two's-complement bits of
// width Kind.Width, Kind.Frac of which are fractional.
type FixedValue struct {
	kind FixedKind
	bits int64
	attr Attr
}

func (v FixedValue) Width() int  { return v.kind.Width }
func (v FixedValue) Attr() Attr  { return v.attr }
func (v FixedValue) Bits() int64 { return v.bits }

// Float returns the value as a float64, ignoring attribute bits.
func (v FixedValue) Float() float64 {
	return float64(v.bits) / math.Pow(2, float64(v.kind.Frac))
}

func (v FixedValue) other(o Value) FixedValue {
	ov, ok := o.(FixedValue)
	if !ok || ov.kind.Width != v.kind.Width || ov.kind.Frac != v.kind.Frac {
		panic(fmt.Sprintf("value: incompatible fixed-point operand %#v for %#v", o, v))
	}
	return ov
}

func (v FixedValue) Add(o Value) Value {
	ov := v.other(o)
	trueVal := new(big.Int).Add(big.NewInt(v.bits), big.NewInt(ov.bits))
	bits, attr := clampOrFlag(trueVal, v.kind.Width, true, v.kind.Policy)
	return FixedValue{kind: v.kind, bits: bits, attr: v.attr | ov.attr | attr}
}

func (v FixedValue) Sub(o Value) Value {
	ov := v.other(o)
	trueVal := new(big.Int).Sub(big.NewInt(v.bits), big.NewInt(ov.bits))
	bits, attr := clampOrFlag(trueVal, v.kind.Width, true, v.kind.Policy)
	return FixedValue{kind: v.kind, bits: bits, attr: v.attr | ov.attr | attr}
}

// Mul performs a full-width product and shifts right by Frac bits,
// per the fxM.N multiplication rule (§4.A).
func (v FixedValue) Mul(o Value) Value {
	ov := v.other(o)
	product := new(big.Int).Mul(big.NewInt(v.bits), big.NewInt(ov.bits))
	shifted := new(big.Int).Rsh(product, uint(v.kind.Frac))
	bits, attr := clampOrFlag(shifted, v.kind.Width, true, v.kind.Policy)
	return FixedValue{kind: v.kind, bits: bits, attr: v.attr | ov.attr | attr}
}

// Div pre-shifts the dividend left by Frac bits before integer-dividing,
// per the fxM.N division rule (§4.A).
func (v FixedValue) Div(o Value) (quotient, remainder Value) {
	ov := v.other(o)
	if ov.bits == 0 {
		inv := FixedValue{kind: v.kind, attr: AttrInvalid}
		return inv, inv
	}
	dividend := new(big.Int).Lsh(big.NewInt(v.bits), uint(v.kind.Frac))
	q, r := new(big.Int).QuoRem(dividend, big.NewInt(ov.bits), new(big.Int))
	qBits, qAttr := clampOrFlag(q, v.kind.Width, true, v.kind.Policy)
	return FixedValue{kind: v.kind, bits: qBits, attr: v.attr | ov.attr | qAttr},
		FixedValue{kind: v.kind, bits: truncate(r.Int64(), v.kind.Width, true), attr: v.attr | ov.attr}
}

func (v FixedValue) Shl(n int) Value {
	bits, attr := clampOrFlag(new(big.Int).Lsh(big.NewInt(v.bits), uint(n)), v.kind.Width, true, v.kind.Policy)
	return FixedValue{kind: v.kind, bits: bits, attr: v.attr | attr}
}

func (v FixedValue) Shr(n int) Value {
	mask := int64(1)<<v.kind.Width - 1
	unsigned := v.bits & mask
	shifted := unsigned >> uint(n)
	return FixedValue{kind: v.kind, bits: truncate(shifted, v.kind.Width, true), attr: v.attr}
}

func (v FixedValue) Dump() []byte { return dump(v.bits, v.kind.Width) }

func (v FixedValue) String() string {
	return fmt.Sprintf("%.*f%s", (v.kind.Frac+3)/4, v.Float(), fmtAttr(v.attr))
}
