package amount

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	a := New(42)
	if a.Sign() != 1 || a.Precision() != 0 {
		t.Errorf("New(42): sign %d prec %d", a.Sign(), a.Precision())
	}
	if got := a.Int64(); got != 42 {
		t.Errorf("Int64() = %d, want 42", got)
	}

	z := New(0)
	if z.quantity != nil {
		t.Error("New(0) should have no quantity")
	}
	if z.Commodity() != nil {
		t.Error("zero amount should have no commodity")
	}
}

func TestFromBool(t *testing.T) {
	if got := FromBool(true).Int64(); got != 1 {
		t.Errorf("FromBool(true) = %d, want 1", got)
	}
	if FromBool(false).quantity != nil {
		t.Error("FromBool(false) should be the zero amount")
	}
}

func TestFromBigInt(t *testing.T) {
	a := FromBigInt(big.NewInt(10050), 2)
	if a.Precision() != 2 {
		t.Errorf("precision = %d, want 2", a.Precision())
	}
	// no commodity means no display floor: the trailing zero is stripped
	if got := a.String(); got != "100.5" {
		t.Errorf("String() = %q, want %q", got, "100.5")
	}
}

func TestDecimalBridge(t *testing.T) {
	d := decimal.RequireFromString("123.456")
	a := FromDecimal(d)
	assert.Equal(t, uint8(3), a.Precision())
	assert.True(t, a.Decimal().Equal(d))

	// positive exponents scale into the mantissa
	a = FromDecimal(decimal.New(5, 2))
	assert.Equal(t, uint8(0), a.Precision())
	assert.Equal(t, int64(500), a.Int64())

	assert.True(t, FromDecimal(decimal.Zero).quantity == nil)
}

func TestFloatBridge(t *testing.T) {
	a := FromFloat(1.5)
	if got := a.Float64(); got != 1.5 {
		t.Errorf("Float64() = %v, want 1.5", got)
	}
	if FromFloat(0).quantity != nil {
		t.Error("FromFloat(0) should be the zero amount")
	}
}

func TestCopyOnWrite(t *testing.T) {
	p := NewPool()
	a, err := p.Parse("$100.00", 0)
	if err != nil {
		t.Fatal(err)
	}

	b := a.Clone()
	if b.quantity != a.quantity {
		t.Fatal("Clone should share the cell")
	}

	neg := b.Neg()
	if !a.Eq(MustParseIn(t, p, "$100.00")) {
		t.Error("mutating a clone changed the original")
	}
	if neg.quantity == a.quantity {
		t.Error("mutation should have detached the cell")
	}
	if got := neg.String(); got != "$-100.00" {
		t.Errorf("negated clone = %q", got)
	}
}

// MustParseIn parses against a specific pool, failing the test on error.
func MustParseIn(t *testing.T, p *Pool, input string) Amount {
	t.Helper()
	a, err := p.Parse(input, 0)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return a
}

func TestZeroIdentities(t *testing.T) {
	p := NewPool()
	a := MustParseIn(t, p, "$12.34")
	zero := Amount{}

	sum, err := a.Add(zero)
	if err != nil || !sum.Eq(a) {
		t.Errorf("a + 0 != a (err %v)", err)
	}

	diff, err := a.Sub(zero)
	if err != nil || !diff.Eq(a) {
		t.Errorf("a - 0 != a (err %v)", err)
	}

	neg, err := zero.Sub(a)
	if err != nil || !neg.Eq(a.Neg()) {
		t.Errorf("0 - a != -a (err %v)", err)
	}
	if neg.Commodity() != a.Commodity() {
		t.Error("0 - a should keep a's commodity")
	}

	if got := a.Mul(zero); got.quantity != nil {
		t.Error("a * 0 should be the zero amount")
	}
	if got := zero.Mul(a); got.quantity != nil {
		t.Error("0 * a should be the zero amount")
	}

	// zero left operand adopts the right
	sum, err = zero.Add(a)
	if err != nil || !sum.Eq(a) {
		t.Errorf("0 + a != a (err %v)", err)
	}
}

func TestAdditiveInverse(t *testing.T) {
	p := NewPool()
	a := MustParseIn(t, p, "$12.34")

	sum, err := a.Add(a.Neg())
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Eq(Amount{}) {
		t.Errorf("a + (-a) = %s, want zero", sum)
	}
	if sum.Sign() != 0 {
		t.Errorf("sign = %d", sum.Sign())
	}
}

func TestCommutativity(t *testing.T) {
	p := NewPool()
	a := MustParseIn(t, p, "$1.25")
	b := MustParseIn(t, p, "$3.50")

	ab, err := a.Add(b)
	assert.NoError(t, err)
	ba, err := b.Add(a)
	assert.NoError(t, err)
	assert.True(t, ab.Eq(ba))
	assert.Equal(t, "$4.75", ab.String())
}

func TestAddPrecisionIsMax(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		prec uint8
		want string
	}{
		{"equal", "1.50", "2.25", 2, "3.75"},
		{"left lower", "1.5", "2.25", 2, "3.75"},
		{"right lower", "1.25", "2.5", 2, "3.75"},
		{"integer plus fraction", "2", "0.125", 3, "2.125"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool()
			a := MustParseIn(t, p, tt.a)
			b := MustParseIn(t, p, tt.b)
			sum, err := a.Add(b)
			if err != nil {
				t.Fatal(err)
			}
			if sum.Precision() != tt.prec {
				t.Errorf("precision = %d, want %d", sum.Precision(), tt.prec)
			}
			if got := sum.String(); got != tt.want {
				t.Errorf("sum = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubAcrossPrecisions(t *testing.T) {
	p := NewPool()
	a := MustParseIn(t, p, "10.5")
	b := MustParseIn(t, p, "0.125")

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatal(err)
	}
	if got := diff.String(); got != "10.375" {
		t.Errorf("diff = %q", got)
	}
	if diff.Precision() != 3 {
		t.Errorf("precision = %d, want 3", diff.Precision())
	}
}

func TestCommodityMismatch(t *testing.T) {
	p := NewPool()
	usd := MustParseIn(t, p, "1 USD")
	eur := MustParseIn(t, p, "2 EUR")

	_, err := usd.Add(eur)
	if !IsCommodityMismatch(err) {
		t.Errorf("Add: err = %v, want commodity mismatch", err)
	}
	_, err = usd.Sub(eur)
	if !IsCommodityMismatch(err) {
		t.Errorf("Sub: err = %v, want commodity mismatch", err)
	}

	e, ok := AsError(err)
	if !ok {
		t.Fatal("expected *Error")
	}
	assert.Equal(t, CodeCommodityMismatch, e.Code)
	assert.Equal(t, "USD", e.Details["left"])
	assert.Equal(t, "EUR", e.Details["right"])
}

func TestBareAndNullCommodityInteroperate(t *testing.T) {
	p := NewPool()
	parsed := MustParseIn(t, p, "2") // carries the pool's null commodity
	built := New(1)                  // carries no commodity at all

	sum, err := built.Add(parsed)
	if err != nil {
		t.Fatal(err)
	}
	if got := sum.Int64(); got != 3 {
		t.Errorf("sum = %d, want 3", got)
	}
}

func TestMulPrecision(t *testing.T) {
	p := NewPool()

	// plain growth: lp + rp
	a := MustParseIn(t, p, "1.25")
	b := MustParseIn(t, p, "2.5")
	prod := a.Mul(b)
	if prod.Precision() != 3 {
		t.Errorf("precision = %d, want 3", prod.Precision())
	}
	if got := prod.String(); got != "3.125" {
		t.Errorf("product = %q", got)
	}

	// growth beyond display precision + 6 is rounded away
	x := MustParseIn(t, p, "$1.12345") // raises $ display precision to 5
	y, err := p.Parse("$1.1234567", ParseNoMigrate)
	if err != nil {
		t.Fatal(err)
	}
	prod = x.Mul(y)
	// 5 + 7 = 12 stored digits, bounded at 5+6
	if prod.Precision() != 11 {
		t.Errorf("precision = %d, want 11", prod.Precision())
	}
}

func TestMulKeepsLeftCommodity(t *testing.T) {
	p := NewPool()
	price := MustParseIn(t, p, "$2.50")
	qty := MustParseIn(t, p, "4")

	total := price.Mul(qty)
	if total.Commodity().Symbol() != "$" {
		t.Errorf("commodity = %q", total.Commodity().Symbol())
	}
	if got := total.String(); got != "$10.00" {
		t.Errorf("total = %q", got)
	}
}

func TestDiv(t *testing.T) {
	p := NewPool()
	MustParseIn(t, p, "$100.00") // shape $: display precision 2

	a := MustParseIn(t, p, "$10")
	b := MustParseIn(t, p, "$3")

	q, err := a.Div(b)
	if err != nil {
		t.Fatal(err)
	}
	if q.Precision() != 6 {
		t.Errorf("precision = %d, want 6", q.Precision())
	}
	// 3.333333 truncated toward zero, displayed rounded to $'s precision
	if got := q.String(); got != "$3.33" {
		t.Errorf("quotient = %q", got)
	}
	if got := q.Round(2).Decimal().String(); got != "3.33" {
		t.Errorf("rounded = %q", got)
	}
}

func TestDivByZero(t *testing.T) {
	p := NewPool()
	a := MustParseIn(t, p, "$10.00")

	_, err := a.Div(Amount{})
	if !IsDivideByZero(err) {
		t.Errorf("err = %v, want divide by zero", err)
	}

	// an amount that is zero at its display precision divides like zero
	MustParseIn(t, p, "EUR 1.00")
	tiny, err := p.Parse("EUR 0.001", ParseNoMigrate)
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.Div(tiny)
	if !IsDivideByZero(err) {
		t.Errorf("err = %v, want divide by zero for sub-display divisor", err)
	}
}

func TestNegAbsSign(t *testing.T) {
	p := NewPool()
	a := MustParseIn(t, p, "$5.00")

	assert.Equal(t, 1, a.Sign())
	assert.Equal(t, -1, a.Neg().Sign())
	assert.Equal(t, 0, Amount{}.Sign())
	assert.True(t, a.Neg().Abs().Eq(a))
	assert.True(t, a.Abs().Eq(a))
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name     string
		mantissa int64
		prec     uint8
		to       uint8
		want     string
	}{
		{"half up", 15, 1, 0, "2"},
		{"below half", 14, 1, 0, "1"},
		{"above half", 16, 1, 0, "2"},
		{"negative above half", -16, 1, 0, "-2"},
		{"negative below half", -14, 1, 0, "-1"},
		// a remainder of exactly minus one half stays put
		{"negative half", -15, 1, 0, "-1"},
		{"two digits", 333333, 5, 2, "3.33"},
		{"two digits up", 335000, 5, 2, "3.35"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := FromBigInt(big.NewInt(tt.mantissa), tt.prec)
			got := a.Round(tt.to)
			if got.Precision() != tt.to {
				t.Errorf("precision = %d, want %d", got.Precision(), tt.to)
			}
			if s := got.String(); s != tt.want {
				t.Errorf("rounded = %q, want %q", s, tt.want)
			}
		})
	}
}

func TestRoundIsPure(t *testing.T) {
	a := FromBigInt(big.NewInt(12345), 3)
	_ = a.Round(1)
	if got := a.String(); got != "12.345" {
		t.Errorf("Round mutated its receiver: %q", got)
	}
}

func TestRoundNoopAtOrBelowPrecision(t *testing.T) {
	a := FromBigInt(big.NewInt(125), 2)
	if got := a.Round(2); got.quantity != a.quantity {
		t.Error("rounding to the same precision should share the cell")
	}
	if got := a.Round(5); got.Precision() != 2 {
		t.Errorf("rounding up changed precision to %d", got.Precision())
	}
}

func TestTruthiness(t *testing.T) {
	p := NewPool()
	MustParseIn(t, p, "$1.00")

	tiny, err := p.Parse("$0.001", ParseNoMigrate)
	if err != nil {
		t.Fatal(err)
	}
	if !tiny.IsZero() {
		t.Error("sub-display residue should test as zero")
	}
	if tiny.Sign() != 1 {
		t.Error("sub-display residue is still numerically positive")
	}

	if !(Amount{}).IsZero() {
		t.Error("zero amount should test as zero")
	}
	if MustParseIn(t, p, "$0.01").IsZero() {
		t.Error("a displayable amount should not test as zero")
	}
}

func TestInt64Truncates(t *testing.T) {
	p := NewPool()
	assert.Equal(t, int64(10), MustParseIn(t, p, "$10.99").Int64())
	assert.Equal(t, int64(-10), MustParseIn(t, p, "$-10.99").Int64())
	assert.Equal(t, int64(0), Amount{}.Int64())
}

func TestComparisons(t *testing.T) {
	p := NewPool()
	one := MustParseIn(t, p, "$1.00")
	two := MustParseIn(t, p, "$2.00")

	assert.True(t, one.Lt(two))
	assert.True(t, one.Le(two))
	assert.True(t, two.Gt(one))
	assert.True(t, two.Ge(one))
	assert.False(t, one.Eq(two))
	assert.True(t, one.Eq(one.Clone()))

	cmp, ok := one.Cmp(two)
	assert.True(t, ok)
	assert.Equal(t, -1, cmp)
}

func TestComparisonAlignsPrecision(t *testing.T) {
	p := NewPool()
	a := MustParseIn(t, p, "1.5")
	b := MustParseIn(t, p, "1.50")
	assert.True(t, a.Eq(b))
	assert.False(t, a.Lt(b))
	assert.True(t, a.Ge(b))
}

func TestIncomparableCommodities(t *testing.T) {
	p := NewPool()
	usd := MustParseIn(t, p, "1 USD")
	eur := MustParseIn(t, p, "2 EUR")

	// never equal, never less: every predicate is false
	assert.False(t, usd.Lt(eur))
	assert.False(t, usd.Le(eur))
	assert.False(t, usd.Gt(eur))
	assert.False(t, usd.Ge(eur))
	assert.False(t, usd.Eq(eur))

	_, ok := usd.Cmp(eur)
	assert.False(t, ok)
}

func TestZeroComparisons(t *testing.T) {
	p := NewPool()
	pos := MustParseIn(t, p, "$1.00")

	assert.True(t, pos.Gt(Amount{}))
	assert.True(t, Amount{}.Eq(Amount{}))
	assert.True(t, pos.Neg().Lt(Amount{}))

	// zero amounts are equal regardless of commodity
	zeroUSD, err := MustParseIn(t, p, "1 USD").Sub(MustParseIn(t, p, "1 USD"))
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, zeroUSD.Eq(Amount{}))
}

func TestValid(t *testing.T) {
	p := NewPool()
	assert.True(t, Amount{}.Valid())
	assert.True(t, MustParseIn(t, p, "$1.00").Valid())

	// a commodity without a quantity is invalid
	broken := Amount{}.WithCommodity(p.FindOrCreate("USD"))
	assert.False(t, broken.Valid())
}
