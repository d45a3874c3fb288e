package amount

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Amount is a signed decimal value in some unit. The zero value is the zero
// amount: no quantity, no commodity.
//
// Amounts are value objects. Operations never mutate their operands; each
// one clones the receiver and lets copy-on-write duplicate the underlying
// cell only when it is shared. Clone registers sharing explicitly, which is
// what the binary codec's back-reference dedup relies on.
type Amount struct {
	quantity  *bigint
	commodity *Commodity
}

// New returns an amount holding an integral value with no commodity.
// Zero yields the zero amount.
func New(v int64) Amount {
	if v == 0 {
		return Amount{}
	}
	return Amount{quantity: newBigintFromInt(v)}
}

// NewUint is New for unsigned values.
func NewUint(v uint64) Amount {
	if v == 0 {
		return Amount{}
	}
	return Amount{quantity: newBigintFromUint(v)}
}

// FromBool returns the amount 1 for true and the zero amount for false.
func FromBool(v bool) Amount {
	if !v {
		return Amount{}
	}
	return Amount{quantity: newBigintFromInt(1)}
}

// FromBigInt builds an amount directly from a mantissa and a count of
// implied fractional digits. The mantissa is copied.
func FromBigInt(mantissa *big.Int, prec uint8) Amount {
	if mantissa.Sign() == 0 {
		return Amount{}
	}
	q := newBigint()
	q.val.Set(mantissa)
	q.prec = prec
	return Amount{quantity: q}
}

// FromDecimal converts a decimal.Decimal into an amount with no commodity.
// The conversion is exact.
func FromDecimal(d decimal.Decimal) Amount {
	if d.IsZero() {
		return Amount{}
	}
	q := newBigint()
	q.val.Set(d.Coefficient())
	exp := int(d.Exponent())
	if exp > 0 {
		q.val.Mul(&q.val, pow10(exp))
	} else if exp < 0 {
		if -exp > maxPrecision {
			panic("amount: precision overflow")
		}
		q.prec = uint8(-exp)
	}
	return Amount{quantity: q}
}

// FromFloat converts a float64 into an amount with no commodity, using the
// shortest decimal rendering of the float. Best-effort, as any float
// conversion is.
func FromFloat(f float64) Amount {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Decimal returns the amount's numeric value as a decimal.Decimal.
func (a Amount) Decimal() decimal.Decimal {
	if a.quantity == nil {
		return decimal.Decimal{}
	}
	m := new(big.Int).Set(&a.quantity.val)
	return decimal.NewFromBigInt(m, -int32(a.quantity.prec))
}

// Commodity returns the amount's commodity, nil for none.
func (a Amount) Commodity() *Commodity {
	return a.commodity
}

// WithCommodity returns a copy of the amount tagged by the given commodity.
func (a Amount) WithCommodity(c *Commodity) Amount {
	a.commodity = c
	return a
}

// Precision reports the stored precision: how many fractional decimal
// digits the mantissa currently carries. It may exceed the commodity's
// display precision by up to six guard digits after Mul or Div.
func (a Amount) Precision() uint8 {
	if a.quantity == nil {
		return 0
	}
	return a.quantity.prec
}

// Clone returns an amount sharing the receiver's cell and registers the
// sharing for copy-on-write. Cells living in a codec arena are deep-copied
// instead; a pointer into an arena must not outlive the decoder that owns it.
func (a Amount) Clone() Amount {
	if a.quantity == nil {
		return a
	}
	if a.quantity.flags&bigintBulkAlloc != 0 {
		return Amount{quantity: newBigintCopy(a.quantity), commodity: a.commodity}
	}
	a.quantity.ref++
	return a
}

// Valid reports whether the amount's internal invariants hold: a reachable
// cell keeps a positive reference count, and a commodity is only present
// together with a quantity.
func (a Amount) Valid() bool {
	if a.quantity != nil {
		return a.quantity.ref > 0
	}
	return a.commodity == nil || a.commodity.isNull()
}

// dup ensures the amount exclusively owns its cell before a mutation.
func (a *Amount) dup() {
	if a.quantity != nil && a.quantity.ref > 1 {
		q := newBigintCopy(a.quantity)
		a.quantity.ref--
		a.quantity = q
	}
}

// release drops the amount's claim on its cell.
func (a *Amount) release() {
	if a.quantity != nil && a.quantity.ref > 0 {
		a.quantity.ref--
	}
}

// resize normalizes the cell's precision to p, truncating toward zero when
// shrinking and scaling by powers of ten when growing.
func (a *Amount) resize(p uint8) {
	if a.quantity == nil || p == a.quantity.prec {
		return
	}
	a.dup()
	q := a.quantity
	if p < q.prec {
		q.val.Quo(&q.val, pow10(int(q.prec-p)))
	} else {
		q.val.Mul(&q.val, pow10(int(p-q.prec)))
	}
	q.prec = p
}

// displayPrecision is the commodity's display precision, zero without one.
func (a Amount) displayPrecision() int {
	if a.commodity == nil {
		return 0
	}
	return int(a.commodity.Precision)
}

// trim bounds precision growth after Mul and Div: round down to six guard
// digits beyond the commodity's display precision.
func (a *Amount) trim(prec int) {
	bound := a.displayPrecision() + 6
	if prec > bound {
		roundMantissa(&a.quantity.val, prec, bound)
		prec = bound
	}
	if prec > maxPrecision {
		panic("amount: precision overflow")
	}
	a.quantity.prec = uint8(prec)
}

// sameCommodity reports whether two commodity handles name the same unit.
// A nil handle and the pool's null commodity are the same thing.
func sameCommodity(x, y *Commodity) bool {
	if x.isNull() || y.isNull() {
		return x.isNull() && y.isNull()
	}
	return x == y
}

func commoditySymbol(c *Commodity) string {
	if c == nil {
		return ""
	}
	return c.symbol
}

// Add returns a+b. Adding amounts of different commodities is an error
// unless one side is the zero amount.
func (a Amount) Add(b Amount) (Amount, error) {
	c := a.Clone()
	if err := c.addAssign(b); err != nil {
		c.release()
		return Amount{}, err
	}
	return c, nil
}

func (a *Amount) addAssign(b Amount) error {
	if b.quantity == nil {
		return nil
	}
	if a.quantity == nil {
		*a = b.Clone()
		return nil
	}
	if !sameCommodity(a.commodity, b.commodity) {
		return newCommodityMismatch("adding",
			commoditySymbol(a.commodity), commoditySymbol(b.commodity))
	}

	a.dup()
	switch {
	case a.quantity.prec == b.quantity.prec:
		a.quantity.val.Add(&a.quantity.val, &b.quantity.val)
	case a.quantity.prec < b.quantity.prec:
		a.resize(b.quantity.prec)
		a.quantity.val.Add(&a.quantity.val, &b.quantity.val)
	default:
		tmp := Amount{quantity: newBigintCopy(b.quantity)}
		tmp.resize(a.quantity.prec)
		a.quantity.val.Add(&a.quantity.val, &tmp.quantity.val)
	}
	return nil
}

// Sub returns a-b. Subtracting from the zero amount negates.
func (a Amount) Sub(b Amount) (Amount, error) {
	c := a.Clone()
	if err := c.subAssign(b); err != nil {
		c.release()
		return Amount{}, err
	}
	return c, nil
}

func (a *Amount) subAssign(b Amount) error {
	if b.quantity == nil {
		return nil
	}
	if a.quantity == nil {
		a.quantity = newBigintCopy(b.quantity)
		a.commodity = b.commodity
		a.quantity.val.Neg(&a.quantity.val)
		return nil
	}
	if !sameCommodity(a.commodity, b.commodity) {
		return newCommodityMismatch("subtracting",
			commoditySymbol(a.commodity), commoditySymbol(b.commodity))
	}

	a.dup()
	switch {
	case a.quantity.prec == b.quantity.prec:
		a.quantity.val.Sub(&a.quantity.val, &b.quantity.val)
	case a.quantity.prec < b.quantity.prec:
		a.resize(b.quantity.prec)
		a.quantity.val.Sub(&a.quantity.val, &b.quantity.val)
	default:
		tmp := Amount{quantity: newBigintCopy(b.quantity)}
		tmp.resize(a.quantity.prec)
		a.quantity.val.Sub(&a.quantity.val, &tmp.quantity.val)
	}
	return nil
}

// Mul returns a*b. The result keeps a's commodity; a zero operand on either
// side yields the zero amount.
func (a Amount) Mul(b Amount) Amount {
	c := a.Clone()
	c.mulAssign(b)
	return c
}

func (a *Amount) mulAssign(b Amount) {
	if b.quantity == nil {
		a.release()
		*a = Amount{}
		return
	}
	if a.quantity == nil {
		return
	}

	a.dup()
	a.quantity.val.Mul(&a.quantity.val, &b.quantity.val)
	a.trim(int(a.quantity.prec) + int(b.quantity.prec))
}

// Div returns a/b, truncated toward zero with six guard digits beyond a's
// stored precision. Dividing by an amount that is zero at its display
// precision is an error.
func (a Amount) Div(b Amount) (Amount, error) {
	c := a.Clone()
	if err := c.divAssign(b); err != nil {
		c.release()
		return Amount{}, err
	}
	return c, nil
}

func (a *Amount) divAssign(b Amount) error {
	if b.quantity == nil || !b.truthy() {
		return newDivideByZero()
	}
	if a.quantity == nil {
		return nil
	}

	a.dup()
	// Increase the value's precision to capture fractional parts after
	// the divide.
	a.quantity.val.Mul(&a.quantity.val, pow10(int(b.quantity.prec)+6))
	a.quantity.val.Quo(&a.quantity.val, &b.quantity.val)
	a.trim(int(a.quantity.prec) + 6)
	return nil
}

// Neg returns the amount with its sign flipped.
func (a Amount) Neg() Amount {
	if a.quantity == nil {
		return a
	}
	c := a.Clone()
	c.dup()
	c.quantity.val.Neg(&c.quantity.val)
	return c
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a.Sign() < 0 {
		return a.Neg()
	}
	return a
}

// Sign returns -1, 0 or +1 from the sign of the mantissa.
func (a Amount) Sign() int {
	if a.quantity == nil {
		return 0
	}
	return a.quantity.val.Sign()
}

// truthy reduces the mantissa to the commodity's display precision and
// tests for nonzero. An amount smaller than the display precision counts
// as zero here even though it is not the numeric zero.
func (a Amount) truthy() bool {
	if a.quantity == nil {
		return false
	}
	dp := a.displayPrecision()
	if int(a.quantity.prec) <= dp {
		return a.quantity.val.Sign() != 0
	}
	t := new(big.Int).Quo(&a.quantity.val, pow10(int(a.quantity.prec)-dp))
	return t.Sign() != 0
}

// IsZero reports whether the amount is zero when truncated to its
// commodity's display precision. Sub-display residue does not count.
func (a Amount) IsZero() bool {
	return !a.truthy()
}

// Round rounds the amount to prec fractional digits. Positive halves round
// away from zero; a negative value exactly halfway rounds toward zero
// (-1.5 becomes -1). Amounts already at or below prec are returned unchanged.
func (a Amount) Round(prec uint8) Amount {
	if a.quantity == nil || a.quantity.prec <= prec {
		return a
	}
	c := a.Clone()
	c.dup()
	roundMantissa(&c.quantity.val, int(c.quantity.prec), int(prec))
	c.quantity.prec = prec
	return c
}

// Int64 truncates the amount to an integer.
func (a Amount) Int64() int64 {
	if a.quantity == nil {
		return 0
	}
	t := new(big.Int).Quo(&a.quantity.val, pow10(int(a.quantity.prec)))
	return t.Int64()
}

// Float64 converts the amount to a float, best-effort.
func (a Amount) Float64() float64 {
	if a.quantity == nil {
		return 0
	}
	f, _ := a.Decimal().Float64()
	return f
}

// Reduce rewrites the amount in the smallest unit of its commodity's
// conversion chain: 1.5h becomes 5400s.
func (a Amount) Reduce() Amount {
	r := a
	for r.commodity != nil && r.commodity.Smaller != nil {
		sm := r.commodity.Smaller
		r = r.Mul(*sm)
		r.commodity = sm.commodity
	}
	return r
}

// Value prices the amount at the given moment using its commodity's price
// history. Without a quantity, a price, or with a NoMarket commodity the
// amount is returned as is. The zero time asks for the latest price.
func (a Amount) Value(moment time.Time) Amount {
	if a.quantity == nil || a.commodity == nil {
		return a
	}
	if a.commodity.Flags.Has(StyleNoMarket) {
		return a
	}
	price := a.commodity.ValueAt(moment)
	if !price.truthy() {
		return a
	}
	v := price.Mul(a)
	return v.Round(uint8(price.displayPrecision()))
}

// --- Comparisons ---

// Comparing amounts of different non-null commodities is defined to yield
// false for every predicate, equality included. Cmp reports the case
// explicitly instead.

// Eq reports a == b. Zero amounts are equal regardless of commodity.
func (a Amount) Eq(b Amount) bool {
	if a.quantity == nil {
		return b.Sign() == 0
	}
	if b.quantity == nil {
		return a.Sign() == 0
	}
	cmp, ok := a.compare(b)
	return ok && cmp == 0
}

// Lt reports a < b.
func (a Amount) Lt(b Amount) bool {
	if a.quantity == nil {
		return b.Sign() < 0
	}
	if b.quantity == nil {
		return a.Sign() < 0
	}
	cmp, ok := a.compare(b)
	return ok && cmp < 0
}

// Le reports a <= b.
func (a Amount) Le(b Amount) bool {
	if a.quantity == nil {
		return b.Sign() <= 0
	}
	if b.quantity == nil {
		return a.Sign() <= 0
	}
	cmp, ok := a.compare(b)
	return ok && cmp <= 0
}

// Gt reports a > b.
func (a Amount) Gt(b Amount) bool {
	if a.quantity == nil {
		return b.Sign() > 0
	}
	if b.quantity == nil {
		return a.Sign() > 0
	}
	cmp, ok := a.compare(b)
	return ok && cmp > 0
}

// Ge reports a >= b.
func (a Amount) Ge(b Amount) bool {
	if a.quantity == nil {
		return b.Sign() >= 0
	}
	if b.quantity == nil {
		return a.Sign() >= 0
	}
	cmp, ok := a.compare(b)
	return ok && cmp >= 0
}

// Cmp orders a against b: -1, 0 or +1 with ok true, or ok false when the
// amounts carry different non-null commodities and are incomparable.
// Missing quantities compare as numeric zero.
func (a Amount) Cmp(b Amount) (int, bool) {
	if a.quantity == nil && b.quantity == nil {
		return 0, true
	}
	if a.quantity == nil {
		return -b.Sign(), true
	}
	if b.quantity == nil {
		return a.Sign(), true
	}
	return a.compare(b)
}

// compare aligns precisions on a temporary and compares mantissas.
// Both sides must have a quantity.
func (a Amount) compare(b Amount) (int, bool) {
	if !a.commodity.isNull() && !b.commodity.isNull() && a.commodity != b.commodity {
		return 0, false
	}

	switch {
	case a.quantity.prec == b.quantity.prec:
		return a.quantity.val.Cmp(&b.quantity.val), true
	case a.quantity.prec < b.quantity.prec:
		tmp := Amount{quantity: newBigintCopy(a.quantity)}
		tmp.resize(b.quantity.prec)
		return tmp.quantity.val.Cmp(&b.quantity.val), true
	default:
		tmp := Amount{quantity: newBigintCopy(b.quantity)}
		tmp.resize(a.quantity.prec)
		return a.quantity.val.Cmp(&tmp.quantity.val), true
	}
}
