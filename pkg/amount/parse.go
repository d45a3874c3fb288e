package amount

import "strings"

// ParseFlag adjusts parser behavior.
type ParseFlag uint8

const (
	// ParseNoMigrate keeps a repeat occurrence from altering the
	// commodity's display flags or precision. A newly created commodity
	// is still shaped by its first occurrence.
	ParseNoMigrate ParseFlag = 1 << iota
	// ParseNoReduce skips the conversion-chain reduction after parsing.
	ParseNoReduce
)

// The possible syntax for an amount is:
//
//	[-]NUM[ ]SYM
//	SYM[ ][-]NUM
//
// where NUM is a run of digits, commas and periods, and SYM is either a
// run of characters excluding whitespace, digits, '-' and '.', or anything
// but '"' inside double quotes.

type amountScanner struct {
	in  string
	pos int
}

func (s *amountScanner) eof() bool {
	return s.pos >= len(s.in)
}

func (s *amountScanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.in[s.pos]
}

func (s *amountScanner) skipSpace() {
	for !s.eof() && (s.in[s.pos] == ' ' || s.in[s.pos] == '\t') {
		s.pos++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

// quantity reads a run of digits, commas and periods, with an optional
// leading minus.
func (s *amountScanner) quantity() string {
	start := s.pos
	if s.peek() == '-' {
		s.pos++
	}
	for !s.eof() {
		c := s.in[s.pos]
		if isDigit(c) || c == '.' || c == ',' {
			s.pos++
		} else {
			break
		}
	}
	return s.in[start:s.pos]
}

// commodity reads a symbol, quoted or bare.
func (s *amountScanner) commodity() (string, error) {
	if s.peek() == '"' {
		s.pos++
		end := strings.IndexByte(s.in[s.pos:], '"')
		if end < 0 {
			return "", newSyntax("Quoted commodity symbol lacks closing quote")
		}
		symbol := s.in[s.pos : s.pos+end]
		s.pos += end + 1
		return symbol, nil
	}
	start := s.pos
	for !s.eof() {
		c := s.in[s.pos]
		if isSpace(c) || isDigit(c) || c == '-' || c == '.' || c == '\n' {
			break
		}
		s.pos++
	}
	return s.in[start:s.pos], nil
}

// Parse reads a single amount, interning its commodity in the pool and
// inferring the commodity's display style from the punctuation and symbol
// placement it observes.
func (p *Pool) Parse(input string, flags ParseFlag) (Amount, error) {
	s := &amountScanner{in: input}

	var (
		symbol    string
		quant     string
		commFlags StyleFlag
		negative  bool
		err       error
	)

	s.skipSpace()
	if s.peek() == '-' {
		negative = true
		s.pos++
		s.skipSpace()
	}

	if c := s.peek(); isDigit(c) || c == '.' {
		quant = s.quantity()

		if !s.eof() && s.peek() != '\n' {
			if isSpace(s.peek()) {
				commFlags |= StyleSeparated
				s.skipSpace()
			}
			symbol, err = s.commodity()
			if err != nil {
				return Amount{}, err
			}
			if symbol != "" {
				commFlags |= StyleSuffixed
			}
		}
	} else {
		symbol, err = s.commodity()
		if err != nil {
			return Amount{}, err
		}
		if isSpace(s.peek()) {
			commFlags |= StyleSeparated
			s.skipSpace()
		}
		quant = s.quantity()
	}

	if quant == "" {
		return Amount{}, newSyntax("No quantity specified for amount")
	}
	if strings.HasPrefix(quant, "-") {
		negative = true
		quant = quant[1:]
	}

	// Create the commodity if it has not already been seen, and update
	// its precision if something greater was used for the quantity.
	newlyCreated := p.Find(symbol) == nil
	comm := p.FindOrCreate(symbol)

	// Determine the precision of the amount, based on the usage of comma
	// or period.
	lastComma := strings.LastIndexByte(quant, ',')
	lastPeriod := strings.LastIndexByte(quant, '.')

	var prec uint8
	switch {
	case lastComma >= 0 && lastPeriod >= 0:
		commFlags |= StyleThousands
		if lastComma > lastPeriod {
			commFlags |= StyleEuropean
			prec = uint8(len(quant) - lastComma - 1)
		} else {
			prec = uint8(len(quant) - lastPeriod - 1)
		}
	case lastComma >= 0 &&
		(p.defaultCommodity == nil || p.defaultCommodity.Flags.Has(StyleEuropean)):
		commFlags |= StyleEuropean
		prec = uint8(len(quant) - lastComma - 1)
	case lastPeriod >= 0 && !comm.Flags.Has(StyleEuropean):
		prec = uint8(len(quant) - lastPeriod - 1)
	default:
		prec = 0
	}

	// The first occurrence of a commodity shapes its style; later
	// occurrences may still upgrade it unless migration is off.
	if newlyCreated || flags&ParseNoMigrate == 0 {
		comm.Flags |= commFlags
		if prec > comm.Precision {
			comm.Precision = prec
		}
	}

	q := newBigint()
	q.prec = prec
	digits := quant
	if lastComma >= 0 || lastPeriod >= 0 {
		digits = strings.Map(func(r rune) rune {
			if r == ',' || r == '.' {
				return -1
			}
			return r
		}, quant)
	}
	if digits != "" {
		if _, ok := q.val.SetString(digits, 10); !ok {
			return Amount{}, newSyntax("No quantity specified for amount").
				WithDetail("input", input)
		}
	}
	if negative {
		q.val.Neg(&q.val)
	}

	a := Amount{quantity: q, commodity: comm}
	if flags&ParseNoReduce == 0 {
		a = a.Reduce()
	}
	return a, nil
}

// ParseConversion introduces a unit conversion chain from a pair of equal
// quantities, e.g. ("1.0m", "60s"): the larger commodity gains a Smaller
// link to the parsed smaller amount, the smaller commodity gains a Larger
// link to their product, and the larger commodity inherits the smaller's
// style plus the market exemption.
func (p *Pool) ParseConversion(largerStr, smallerStr string) error {
	larger, err := p.Parse(largerStr, ParseNoReduce)
	if err != nil {
		return err
	}
	smaller, err := p.Parse(smallerStr, ParseNoReduce)
	if err != nil {
		return err
	}

	product := larger.Mul(smaller)

	if !larger.commodity.isNull() {
		link := smaller.Clone()
		larger.commodity.Smaller = &link
		larger.commodity.Flags = flagsOf(smaller.commodity) | StyleNoMarket
	}
	if !smaller.commodity.isNull() {
		link := product.Clone()
		smaller.commodity.Larger = &link
	}

	p.log.Debugw("conversion registered",
		"larger", larger.commodity.Symbol(), "smaller", smaller.commodity.Symbol())
	return nil
}
