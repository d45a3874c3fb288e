package amount

import (
	"sync"

	"ledgerkit/pkg/logger"
)

// StyleFlag is the bitset of display-style properties of a commodity.
// Flags are inferred from parsed input and drive the formatter.
type StyleFlag uint16

const (
	// StyleSuffixed prints the symbol after the number.
	StyleSuffixed StyleFlag = 1 << iota
	// StyleSeparated puts one space between number and symbol.
	StyleSeparated
	// StyleEuropean uses ',' as the decimal mark and '.' to group thousands.
	StyleEuropean
	// StyleThousands emits group separators in the integer part.
	StyleThousands
	// StyleNoMarket exempts the commodity from market valuation.
	StyleNoMarket
	// StyleBuiltin marks commodities created by the pool itself.
	StyleBuiltin
	// StyleVariable formats with the stored precision, ignoring the
	// commodity's display precision.
	StyleVariable
)

// Has reports whether all bits of flag are set.
func (f StyleFlag) Has(flag StyleFlag) bool {
	return f&flag == flag
}

// Commodity is a named unit: a display style, a display precision, optional
// conversion links to neighboring units, and an optional price history.
// Commodities are owned by their Pool and compared by identity.
type Commodity struct {
	symbol string
	quote  bool

	// Precision is the display precision in decimal digits.
	Precision uint8

	// Flags hold the display style.
	Flags StyleFlag

	// Smaller expresses one unit of this commodity in a smaller one
	// (1h -> 60m). Reduce walks down this chain.
	Smaller *Amount

	// Larger expresses how many of this unit make up the next larger one,
	// in the larger unit's commodity. The formatter walks up this chain to
	// promote to the largest unit whose value is still >= 1.
	Larger *Amount

	history *History
	pool    *Pool
}

// Symbol returns the commodity's textual symbol, empty for the null
// commodity.
func (c *Commodity) Symbol() string {
	if c == nil {
		return ""
	}
	return c.symbol
}

// Quoted reports whether the symbol must be printed inside double quotes
// because it contains whitespace, a digit, '-' or '.'.
func (c *Commodity) Quoted() bool {
	return c != nil && c.quote
}

func (c *Commodity) isNull() bool {
	return c == nil || c.symbol == ""
}

func (c *Commodity) setSymbol(symbol string) {
	c.symbol = symbol
	c.quote = false
	for _, r := range symbol {
		if r == ' ' || r == '\t' || r == '\n' || r == '-' || r == '.' ||
			(r >= '0' && r <= '9') {
			c.quote = true
			return
		}
	}
}

// flagsOf tolerates a nil commodity handle.
func flagsOf(c *Commodity) StyleFlag {
	if c == nil {
		return 0
	}
	return c.Flags
}

// Pool interns commodities by symbol and owns the null commodity, the
// default commodity used for locale fallbacks, and the price updater hook.
// It is not safe for concurrent mutation; confine a pool to one goroutine
// or guard it.
type Pool struct {
	commodities      map[string]*Commodity
	null             *Commodity
	defaultCommodity *Commodity
	updater          PriceUpdater
	log              *logger.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger routes the pool's debug logging to l.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// WithUpdater installs the price updater hook.
func WithUpdater(u PriceUpdater) Option {
	return func(p *Pool) { p.updater = u }
}

// NewPool creates a pool with the null commodity and the builtin time
// units: s (seconds, never valued at market), 1.0m = 60s, 1.0h = 60m, so
// that time logs parse in seconds but report as minutes or hours.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		commodities: make(map[string]*Commodity),
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithComponent("commodity-pool")

	p.null = p.FindOrCreate("")

	seconds := p.FindOrCreate("s")
	seconds.Flags |= StyleNoMarket | StyleBuiltin

	if err := p.ParseConversion("1.0m", "60s"); err != nil {
		panic(err)
	}
	if err := p.ParseConversion("1.0h", "60m"); err != nil {
		panic(err)
	}

	return p
}

// Find returns the commodity interned under symbol, nil when unseen.
func (p *Pool) Find(symbol string) *Commodity {
	return p.commodities[symbol]
}

// FindOrCreate returns the commodity interned under symbol, creating it on
// first sight. A new commodity starts from the default commodity's style,
// minus its thousands grouping and market exemption.
func (p *Pool) FindOrCreate(symbol string) *Commodity {
	if c, ok := p.commodities[symbol]; ok {
		return c
	}

	c := &Commodity{pool: p}
	c.setSymbol(symbol)
	if p.defaultCommodity != nil {
		c.Flags = p.defaultCommodity.Flags &^ (StyleThousands | StyleNoMarket)
	}
	p.commodities[symbol] = c

	p.log.Debugw("commodity created", "symbol", symbol, "quoted", c.quote)
	return c
}

// Null returns the pool's null commodity (empty symbol).
func (p *Pool) Null() *Commodity {
	return p.null
}

// Commodities returns the interned commodities keyed by symbol. The map is
// the pool's own; treat it as read-only.
func (p *Pool) Commodities() map[string]*Commodity {
	return p.commodities
}

// DefaultCommodity returns the commodity whose style resolves ambiguous
// punctuation during parsing, nil when unset.
func (p *Pool) DefaultCommodity() *Commodity {
	return p.defaultCommodity
}

// SetDefaultCommodity sets the commodity used for locale fallbacks.
func (p *Pool) SetDefaultCommodity(c *Commodity) {
	p.defaultCommodity = c
}

// SetUpdater installs the price updater hook.
func (p *Pool) SetUpdater(u PriceUpdater) {
	p.updater = u
}

var (
	defaultPoolOnce sync.Once
	defaultPool     *Pool
)

// Default returns the process-wide pool, created on first use.
func Default() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool()
	})
	return defaultPool
}

// Parse parses an amount against the default pool.
func Parse(input string) (Amount, error) {
	return Default().Parse(input, 0)
}

// MustParse is Parse, panicking on error. Use only for literals.
func MustParse(input string) Amount {
	a, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return a
}
