package amount

import (
	"math/big"
	"strings"
)

// String renders the amount in its commodity's display style. When the
// commodity has a Larger chain the amount is first promoted to the largest
// unit whose magnitude is still at least one. The whole amount is built
// into one string, so a caller's field width applies to all of it.
func (a Amount) String() string {
	if a.quantity == nil {
		return "0"
	}

	base := a
	if a.commodity != nil && a.commodity.Larger != nil {
		last := a.Clone()
		one := New(1)
		for last.commodity != nil && last.commodity.Larger != nil {
			lg := last.commodity.Larger
			if err := last.divAssign(*lg); err != nil {
				break
			}
			last.commodity = lg.commodity
			if last.Abs().Lt(one) {
				break
			}
			base = last.Clone()
		}
	}

	comm := base.commodity
	q := base.quantity

	// Round the value to the commodity's precision before splitting it,
	// or keep every stored digit for the null commodity and for
	// variable-precision display.
	var (
		quotient  = new(big.Int)
		remainder = new(big.Int)
		precision int
	)
	switch {
	case comm.isNull() || comm.Flags.Has(StyleVariable):
		quotient.QuoRem(&q.val, pow10(int(q.prec)), remainder)
		precision = int(q.prec)
	case int(comm.Precision) < int(q.prec):
		rounded := new(big.Int).Set(&q.val)
		roundMantissa(rounded, int(q.prec), int(comm.Precision))
		quotient.QuoRem(rounded, pow10(int(comm.Precision)), remainder)
		precision = int(comm.Precision)
	case int(comm.Precision) > int(q.prec):
		scaled := new(big.Int).Mul(&q.val, pow10(int(comm.Precision)-int(q.prec)))
		quotient.QuoRem(scaled, pow10(int(comm.Precision)), remainder)
		precision = int(comm.Precision)
	case q.prec > 0:
		quotient.QuoRem(&q.val, pow10(int(q.prec)), remainder)
		precision = int(q.prec)
	default:
		quotient.Set(&q.val)
	}

	negative := false
	if quotient.Sign() < 0 || remainder.Sign() < 0 {
		negative = true
		quotient.Abs(quotient)
		remainder.Abs(remainder)
	}

	if quotient.Sign() == 0 && remainder.Sign() == 0 {
		return "0"
	}

	flags := flagsOf(comm)
	var out strings.Builder

	if !flags.Has(StyleSuffixed) {
		writeSymbol(&out, comm)
		if flags.Has(StyleSeparated) {
			out.WriteByte(' ')
		}
	}

	if negative {
		out.WriteByte('-')
	}

	switch {
	case quotient.Sign() == 0:
		out.WriteByte('0')
	case !flags.Has(StyleThousands):
		out.WriteString(quotient.String())
	default:
		sep := byte(',')
		if flags.Has(StyleEuropean) {
			sep = '.'
		}
		writeGrouped(&out, quotient.String(), sep)
	}

	if precision > 0 {
		frac := remainder.String()
		if len(frac) < precision {
			frac = strings.Repeat("0", precision-len(frac)) + frac
		}

		// Strip trailing zeros, but keep at least the commodity's
		// display precision worth of digits.
		i := len(frac)
		for i > 0 && frac[i-1] == '0' {
			i--
		}
		var ender string
		switch {
		case i == len(frac):
			ender = frac
		case i < int(commPrecision(comm)):
			ender = frac[:min(int(commPrecision(comm)), len(frac))]
		default:
			ender = frac[:i]
		}

		if ender != "" {
			if flags.Has(StyleEuropean) {
				out.WriteByte(',')
			} else {
				out.WriteByte('.')
			}
			out.WriteString(ender)
		}
	}

	if flags.Has(StyleSuffixed) {
		if flags.Has(StyleSeparated) {
			out.WriteByte(' ')
		}
		writeSymbol(&out, comm)
	}

	return out.String()
}

func commPrecision(c *Commodity) uint8 {
	if c == nil {
		return 0
	}
	return c.Precision
}

func writeSymbol(out *strings.Builder, c *Commodity) {
	if c == nil {
		return
	}
	if c.quote {
		out.WriteByte('"')
		out.WriteString(c.symbol)
		out.WriteByte('"')
	} else {
		out.WriteString(c.symbol)
	}
}

// writeGrouped writes the decimal digits of an absolute integer with a
// separator every three digits.
func writeGrouped(out *strings.Builder, digits string, sep byte) {
	head := len(digits) % 3
	if head > 0 {
		out.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if i > 0 {
			out.WriteByte(sep)
		}
		out.WriteString(digits[i : i+3])
	}
}
