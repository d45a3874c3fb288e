package amount

import (
	"encoding/binary"
	"io"

	"ledgerkit/pkg/logger"
)

// Binary quantity layout. One tag byte:
//
//	0  no quantity
//	1  inline cell: len uint16, payload (2-byte words, MSB-first words and
//	   bytes), negative byte, precision uint16
//	2  back-reference: arena index uint32, 1-based
//
// Scalars are little-endian; the payload order follows the mantissa export
// convention and both must be held stable for cross-file compatibility.

const (
	quantityTagNone   = 0
	quantityTagInline = 1
	quantityTagRef    = 2

	// maxPayload bounds a single mantissa on the wire.
	maxPayload = 4096
)

// Encoder writes amount quantities to a stream, deduplicating shared cells
// by reference. The first time a cell is seen it is written inline and
// assigned an index; later encounters emit a back-reference to that index.
type Encoder struct {
	w         io.Writer
	nextIndex uint32
	log       *logger.Logger
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, log: logger.Nop()}
}

// SetLogger routes the encoder's debug logging to l.
func (e *Encoder) SetLogger(l *logger.Logger) {
	e.log = l.WithComponent("amount-codec")
}

// WriteQuantity writes the amount's quantity cell. Commodities travel
// separately; only the mantissa, sign and precision are encoded.
func (e *Encoder) WriteQuantity(a Amount) error {
	q := a.quantity
	if q == nil {
		_, err := e.w.Write([]byte{quantityTagNone})
		return err
	}

	if q.index == 0 {
		e.nextIndex++
		q.index = e.nextIndex

		payload := q.val.Bytes()
		if len(payload)%2 != 0 {
			// front-pad to whole 2-byte words
			payload = append([]byte{0}, payload...)
		}
		if len(payload) > maxPayload {
			panic("amount: quantity payload too large")
		}

		var hdr [3]byte
		hdr[0] = quantityTagInline
		binary.LittleEndian.PutUint16(hdr[1:], uint16(len(payload)))
		if _, err := e.w.Write(hdr[:]); err != nil {
			return err
		}
		if len(payload) > 0 {
			if _, err := e.w.Write(payload); err != nil {
				return err
			}
		}

		var tail [3]byte
		if q.val.Sign() < 0 {
			tail[0] = 1
		}
		binary.LittleEndian.PutUint16(tail[1:], uint16(q.prec))
		_, err := e.w.Write(tail[:])
		return err
	}

	// Already written; emit a reference to which one it was. Only shared
	// cells can be referenced.
	if q.ref <= 1 {
		panic("amount: back-reference to unshared cell")
	}
	var buf [5]byte
	buf[0] = quantityTagRef
	binary.LittleEndian.PutUint32(buf[1:], q.index)
	_, err := e.w.Write(buf[:])
	return err
}

// Decoder reads amount quantities written by an Encoder. The arena variant
// owns a contiguous block of cells; back-references resolve into it and the
// cells it holds are marked bulk-allocated, so copies out of them are deep.
type Decoder struct {
	r     io.Reader
	arena []bigint
	used  int
	log   *logger.Logger
}

// NewDecoder returns a Decoder reading from r with room for capacity arena
// cells. A capacity of zero suits streams read with ReadQuantity only.
func NewDecoder(r io.Reader, capacity int) *Decoder {
	return &Decoder{
		r:     r,
		arena: make([]bigint, capacity),
		log:   logger.Nop(),
	}
}

// SetLogger routes the decoder's debug logging to l.
func (d *Decoder) SetLogger(l *logger.Logger) {
	d.log = l.WithComponent("amount-codec")
}

// ArenaLen returns the number of arena cells filled so far.
func (d *Decoder) ArenaLen() int {
	return d.used
}

// ReadQuantityArena reads one quantity into the decoder's arena. Inline
// cells fill the next arena slot; back-references resolve to a previously
// filled slot and share its cell.
func (d *Decoder) ReadQuantityArena() (Amount, error) {
	tag, err := d.readTag()
	if err != nil {
		return Amount{}, err
	}

	switch tag {
	case quantityTagNone:
		return Amount{}, nil

	case quantityTagInline:
		if d.used == len(d.arena) {
			panic("amount: codec arena exhausted")
		}
		q := &d.arena[d.used]
		d.used++
		q.ref = 1
		q.flags = bigintBulkAlloc
		if err := d.readCell(q); err != nil {
			return Amount{}, err
		}
		return Amount{quantity: q}, nil

	case quantityTagRef:
		var buf [4]byte
		if _, err := io.ReadFull(d.r, buf[:]); err != nil {
			return Amount{}, err
		}
		index := binary.LittleEndian.Uint32(buf[:])
		if index == 0 || int(index) > d.used {
			panic("amount: back-reference outside arena")
		}
		q := &d.arena[index-1]
		q.ref++
		return Amount{quantity: q}, nil

	default:
		return Amount{}, newSyntax("invalid quantity tag").
			WithDetail("tag", tag)
	}
}

// ReadQuantity reads one quantity into a free-standing cell. Back-references
// are only meaningful against an arena and are a programmer error here.
func (d *Decoder) ReadQuantity() (Amount, error) {
	tag, err := d.readTag()
	if err != nil {
		return Amount{}, err
	}

	switch tag {
	case quantityTagNone:
		return Amount{}, nil

	case quantityTagInline:
		q := newBigint()
		if err := d.readCell(q); err != nil {
			return Amount{}, err
		}
		return Amount{quantity: q}, nil

	case quantityTagRef:
		panic("amount: back-reference in stream read")

	default:
		return Amount{}, newSyntax("invalid quantity tag").
			WithDetail("tag", tag)
	}
}

func (d *Decoder) readTag() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readCell reads the inline payload following a tag-1 byte.
func (d *Decoder) readCell(q *bigint) error {
	var lenBuf [2]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		return err
	}
	payloadLen := int(binary.LittleEndian.Uint16(lenBuf[:]))
	if payloadLen > maxPayload {
		panic("amount: quantity payload too large")
	}

	if payloadLen > 0 {
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(d.r, payload); err != nil {
			return err
		}
		q.val.SetBytes(payload)
	}

	var tail [3]byte
	if _, err := io.ReadFull(d.r, tail[:]); err != nil {
		return err
	}
	if tail[0] != 0 {
		q.val.Neg(&q.val)
	}
	prec := binary.LittleEndian.Uint16(tail[1:])
	if prec > maxPrecision {
		panic("amount: precision overflow")
	}
	q.prec = uint8(prec)

	d.log.Debugw("quantity read", "bytes", payloadLen, "precision", q.prec)
	return nil
}
