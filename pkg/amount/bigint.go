package amount

import "math/big"

// bigint flag bits.
const bigintBulkAlloc uint8 = 0x01

// maxPrecision bounds the stored precision of a cell. Precisions are carried
// in a single byte in memory; the codec's 16-bit precision field is checked
// against this bound on read.
const maxPrecision = 255

// bigint is a reference-counted cell holding an unbounded mantissa together
// with its implied count of fractional decimal digits. Amounts share cells
// until one of them mutates (copy-on-write).
type bigint struct {
	val   big.Int
	prec  uint8
	flags uint8
	ref   uint32
	index uint32 // codec dedup key, 0 = not yet written
}

func newBigint() *bigint {
	return &bigint{ref: 1}
}

func newBigintFromInt(v int64) *bigint {
	q := &bigint{ref: 1}
	q.val.SetInt64(v)
	return q
}

func newBigintFromUint(v uint64) *bigint {
	q := &bigint{ref: 1}
	q.val.SetUint64(v)
	return q
}

// newBigintCopy duplicates the mantissa and precision of another cell.
// Flags and index are deliberately not carried over: the copy is a fresh,
// individually owned cell.
func newBigintCopy(other *bigint) *bigint {
	q := &bigint{prec: other.prec, ref: 1}
	q.val.Set(&other.val)
	return q
}

// pow10 returns 10^n. n must be non-negative.
func pow10(n int) *big.Int {
	if n < 0 {
		panic("amount: negative power of ten")
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// roundMantissa rounds v, carrying valuePrec fractional digits, down to
// roundPrec digits and strips the rounded-off digits. Halves round away
// from zero on the positive side; a remainder of exactly minus one half
// stays put.
func roundMantissa(v *big.Int, valuePrec, roundPrec int) {
	if valuePrec <= roundPrec {
		panic("amount: rounding to a larger precision")
	}

	d := pow10(valuePrec - roundPrec)
	r := new(big.Int)
	new(big.Int).QuoRem(v, d, r)

	// threshold is d/2, i.e. 5*10^(valuePrec-roundPrec-1)
	half := new(big.Int).Quo(d, big.NewInt(2))

	if r.Sign() < 0 {
		half.Neg(half)
		if r.Cmp(half) < 0 {
			v.Sub(v, new(big.Int).Add(d, r))
		} else {
			v.Sub(v, r)
		}
	} else {
		if r.Cmp(half) >= 0 {
			v.Add(v, new(big.Int).Sub(d, r))
		} else {
			v.Sub(v, r)
		}
	}

	// chop off the rounded digits
	v.Quo(v, d)
}
