// Package amount is the value core of the ledger engine: exact fixed-point
// arithmetic on unbounded decimal amounts, each tagged by a commodity.
//
// An Amount pairs a reference-counted mantissa cell with a commodity handle.
// Commodities are interned per Pool and accumulate their display style
// (punctuation locale, symbol placement, precision) from the amounts parsed
// in them; the formatter replays that style on output. Commodities can be
// chained into unit conversions (1h = 60m = 3600s) and carry a time-ordered
// price history for market valuation.
//
// The binary codec serializes quantity cells with cross-reference
// deduplication, so many amounts sharing one cell cost one payload in a
// stream and rehydrate into a shared arena.
//
// Pools are not synchronized; confine one to a goroutine or guard it.
package amount
