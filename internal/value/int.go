package value

import (
	"fmt"
	"math/big"
)

// IntKind describes a family of two's-complement integer values sharing
// a width, signedness and overflow policy. Literal values are built
// through a Kind so every value in a circuit carries consistent
// arithmetic rules.
type IntKind struct {
	Width  int
	Signed bool
	Policy OverflowPolicy
}

// Literal builds an IntValue from a plain int64, truncating it to Width
// bits (no overflow attribute is set — this is construction, not
// arithmetic).
func (k IntKind) Literal(v int64) Value {
	return IntValue{kind: k, bits: truncate(v, k.Width, k.Signed)}
}

// Invalid builds an IntValue carrying AttrInvalid, used where a variable
// is read before it is produced.
func (k IntKind) Invalid() Value {
	return IntValue{kind: k, attr: AttrInvalid}
}

// IntValue is a two's-complement integer value.
type IntValue struct {
	kind IntKind
	bits int64
	attr Attr
}

func (v IntValue) Width() int  { return v.kind.Width }
func (v IntValue) Attr() Attr  { return v.attr }
func (v IntValue) Bits() int64 { return v.bits }

func (v IntValue) other(o Value) IntValue {
	ov, ok := o.(IntValue)
	if !ok || ov.kind.Width != v.kind.Width || ov.kind.Signed != v.kind.Signed {
		panic(fmt.Sprintf("value: incompatible int operand %#v for %#v", o, v))
	}
	return ov
}

func (v IntValue) Add(o Value) Value { return v.binOp(o, new(big.Int).Add) }
func (v IntValue) Sub(o Value) Value { return v.binOp(o, new(big.Int).Sub) }
func (v IntValue) Mul(o Value) Value { return v.binOp(o, new(big.Int).Mul) }

func (v IntValue) binOp(o Value, op func(x, y *big.Int) *big.Int) Value {
	ov := v.other(o)
	trueVal := op(big.NewInt(v.bits), big.NewInt(ov.bits))
	bits, attr := clampOrFlag(trueVal, v.kind.Width, v.kind.Signed, v.kind.Policy)
	return IntValue{kind: v.kind, bits: bits, attr: (v.attr | ov.attr | attr)}
}

func (v IntValue) Div(o Value) (quotient, remainder Value) {
	ov := v.other(o)
	if ov.bits == 0 {
		return IntValue{kind: v.kind, attr: AttrInvalid}, IntValue{kind: v.kind, attr: AttrInvalid}
	}
	q := v.bits / ov.bits
	r := v.bits % ov.bits
	qBits, qAttr := clampOrFlag(big.NewInt(q), v.kind.Width, v.kind.Signed, v.kind.Policy)
	return IntValue{kind: v.kind, bits: qBits, attr: v.attr | ov.attr | qAttr},
		IntValue{kind: v.kind, bits: truncate(r, v.kind.Width, v.kind.Signed), attr: v.attr | ov.attr}
}

func (v IntValue) Shl(n int) Value {
	bits, attr := clampOrFlag(new(big.Int).Lsh(big.NewInt(v.bits), uint(n)), v.kind.Width, v.kind.Signed, v.kind.Policy)
	return IntValue{kind: v.kind, bits: bits, attr: v.attr | attr}
}

func (v IntValue) Shr(n int) Value {
	// Logical shift: work on the unsigned bit pattern.
	mask := int64(1)<<v.kind.Width - 1
	unsigned := v.bits & mask
	shifted := unsigned >> uint(n)
	return IntValue{kind: v.kind, bits: truncate(shifted, v.kind.Width, v.kind.Signed), attr: v.attr}
}

func (v IntValue) Dump() []byte { return dump(v.bits, v.kind.Width) }

func (v IntValue) String() string {
	return fmt.Sprintf("%d%s", v.bits, fmtAttr(v.attr))
}
