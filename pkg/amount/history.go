package amount

import (
	"sort"
	"time"
)

// PricePoint is one recorded market price.
type PricePoint struct {
	Time  time.Time
	Price Amount
}

// History is a commodity's time-ordered price record.
type History struct {
	prices []PricePoint // ascending by Time, unique timestamps
}

// Len returns the number of recorded prices.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.prices)
}

// Prices returns the recorded points in time order. The slice is the
// history's own; treat it as read-only.
func (h *History) Prices() []PricePoint {
	if h == nil {
		return nil
	}
	return h.prices
}

// add inserts a price, replacing any price already recorded at t.
func (h *History) add(t time.Time, price Amount) {
	i := sort.Search(len(h.prices), func(i int) bool {
		return !h.prices[i].Time.Before(t)
	})
	if i < len(h.prices) && h.prices[i].Time.Equal(t) {
		h.prices[i].Price = price
		return
	}
	h.prices = append(h.prices, PricePoint{})
	copy(h.prices[i+1:], h.prices[i:])
	h.prices[i] = PricePoint{Time: t, Price: price}
}

// latest returns the most recent point.
func (h *History) latest() PricePoint {
	return h.prices[len(h.prices)-1]
}

// PriceUpdater lets an external provider refresh or override a price as it
// is looked up. It receives the commodity, the requested moment, the age of
// the price found (zero time when none), the latest recorded moment, and
// the price found so far, which it may replace in place.
type PriceUpdater func(c *Commodity, moment, age, latest time.Time, price *Amount)

// AddPrice records the market price of one unit of the commodity at t.
// A price already recorded at the same moment is replaced.
func (c *Commodity) AddPrice(t time.Time, price Amount) {
	if c.history == nil {
		c.history = &History{}
	}
	c.history.add(t, price)
	if c.pool != nil {
		c.pool.log.Debugw("price added",
			"symbol", c.symbol, "time", t, "price", price.String())
	}
}

// History returns the commodity's price history, nil when none.
func (c *Commodity) History() *History {
	return c.history
}

// ValueAt returns the price of one unit of the commodity at the given
// moment: the price with the nearest earlier timestamp, the most recent
// price for the zero moment or when the moment follows all records, and
// the zero amount when the moment precedes all records or there is no
// history at all. The pool's updater hook
// runs last and may refresh or override the result.
func (c *Commodity) ValueAt(moment time.Time) Amount {
	var (
		price Amount
		age   time.Time
	)

	if c.history.Len() > 0 {
		prices := c.history.prices
		if moment.IsZero() {
			last := c.history.latest()
			age = last.Time
			price = last.Price
		} else {
			i := sort.Search(len(prices), func(i int) bool {
				return !prices[i].Time.Before(moment)
			})
			switch {
			case i == len(prices):
				last := c.history.latest()
				age = last.Time
				price = last.Price
			case prices[i].Time.Equal(moment):
				age = prices[i].Time
				price = prices[i].Price
			case i > 0:
				age = prices[i-1].Time
				price = prices[i-1].Price
			default:
				// moment precedes all recorded prices
				age = time.Time{}
			}
		}
	}

	if c.pool != nil {
		var latest time.Time
		if c.history.Len() > 0 {
			latest = c.history.latest().Time
		}
		if c.pool.updater != nil {
			c.pool.updater(c, moment, age, latest, &price)
		}
		c.pool.log.Debugw("price lookup",
			"symbol", c.symbol, "moment", moment, "age", age,
			"price", price.String())
	}

	return price
}
