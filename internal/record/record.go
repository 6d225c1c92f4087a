// Package record writes flock snapshots to a stream and reads them back,
// for offline analysis and replay checks.
//
// A stream is a sequence of length-delimited protobuf messages:
//
//	Snapshot { bytes flock = 1; uint64 tick = 2; uint32 dim = 3; repeated Agent agents = 4; }
//	Agent    { uint64 key = 1; repeated double position = 2 [packed]; repeated double velocity = 3 [packed]; }
//
// Behavior parameters are not recorded.
package record

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/simulation"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldFlock  protowire.Number = 1
	fieldTick   protowire.Number = 2
	fieldDim    protowire.Number = 3
	fieldAgents protowire.Number = 4

	fieldKey      protowire.Number = 1
	fieldPosition protowire.Number = 2
	fieldVelocity protowire.Number = 3
)

// MaxMessageSize bounds the size of one recorded snapshot.
const MaxMessageSize = 64 << 20

// ErrCorrupt is returned for malformed streams.
var ErrCorrupt = errors.New("corrupt record")

// Writer appends snapshots to a stream.
type Writer[V geometry.Vector[V]] struct {
	w   io.Writer
	buf []byte
	msg []byte
	n   int
}

// NewWriter returns a Writer on w. Writes are not buffered.
func NewWriter[V geometry.Vector[V]](w io.Writer) *Writer[V] {
	return &Writer[V]{w: w}
}

// Write appends one snapshot.
func (w *Writer[V]) Write(s *simulation.Snapshot[V]) error {
	w.msg = appendSnapshot(w.msg[:0], s)
	w.buf = protowire.AppendVarint(w.buf[:0], uint64(len(w.msg)))
	w.buf = append(w.buf, w.msg...)
	if _, err := w.w.Write(w.buf); err != nil {
		return fmt.Errorf("write snapshot %d: %w", s.Tick, err)
	}
	w.n++
	return nil
}

// Count returns the number of snapshots written.
func (w *Writer[V]) Count() int { return w.n }

func appendSnapshot[V geometry.Vector[V]](b []byte, s *simulation.Snapshot[V]) []byte {
	var zero V
	id := s.Flock
	b = protowire.AppendTag(b, fieldFlock, protowire.BytesType)
	b = protowire.AppendBytes(b, id[:])
	b = protowire.AppendTag(b, fieldTick, protowire.VarintType)
	b = protowire.AppendVarint(b, s.Tick)
	b = protowire.AppendTag(b, fieldDim, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(zero.Dim()))

	var agent []byte
	for _, a := range s.Agents {
		agent = agent[:0]
		agent = protowire.AppendTag(agent, fieldKey, protowire.VarintType)
		agent = protowire.AppendVarint(agent, a.Key)
		agent = appendPacked(agent, fieldPosition, a.Position)
		agent = appendPacked(agent, fieldVelocity, a.Velocity)

		b = protowire.AppendTag(b, fieldAgents, protowire.BytesType)
		b = protowire.AppendBytes(b, agent)
	}
	return b
}

func appendPacked[V geometry.Vector[V]](b []byte, num protowire.Number, v V) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(v.Dim()*8))
	for a := 0; a < v.Dim(); a++ {
		b = protowire.AppendFixed64(b, math.Float64bits(v.Axis(a)))
	}
	return b
}

// Reader reads snapshots back. Agents are re-indexed in stream order and
// have nil Params.
type Reader[V geometry.Vector[V]] struct {
	r   *bufio.Reader
	buf []byte
}

// NewReader returns a Reader on r.
func NewReader[V geometry.Vector[V]](r io.Reader) *Reader[V] {
	return &Reader[V]{r: bufio.NewReader(r)}
}

// Read returns the next snapshot, or io.EOF at the end of the stream.
func (r *Reader[V]) Read() (*simulation.Snapshot[V], error) {
	size, err := binary.ReadUvarint(r.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if size > MaxMessageSize {
		return nil, fmt.Errorf("%w: message of %d bytes", ErrCorrupt, size)
	}
	if cap(r.buf) < int(size) {
		r.buf = make([]byte, size)
	}
	r.buf = r.buf[:size]
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return parseSnapshot[V](r.buf)
}

// ReadAll reads every remaining snapshot.
func (r *Reader[V]) ReadAll() ([]*simulation.Snapshot[V], error) {
	var out []*simulation.Snapshot[V]
	for {
		s, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}

func parseSnapshot[V geometry.Vector[V]](b []byte) (*simulation.Snapshot[V], error) {
	var zero V
	s := &simulation.Snapshot[V]{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldFlock && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: flock: %w", ErrCorrupt, protowire.ParseError(n))
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return nil, fmt.Errorf("%w: flock: %w", ErrCorrupt, err)
			}
			s.Flock = id
			b = b[n:]
		case num == fieldTick && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: tick: %w", ErrCorrupt, protowire.ParseError(n))
			}
			s.Tick = v
			b = b[n:]
		case num == fieldDim && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: dim: %w", ErrCorrupt, protowire.ParseError(n))
			}
			if int(v) != zero.Dim() {
				return nil, fmt.Errorf("%w: recorded %d, reading %d", simulation.ErrDimensionMismatch, v, zero.Dim())
			}
			b = b[n:]
		case num == fieldAgents && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: agent: %w", ErrCorrupt, protowire.ParseError(n))
			}
			a, err := parseAgent[V](v)
			if err != nil {
				return nil, err
			}
			a.ID = len(s.Agents)
			s.Agents = append(s.Agents, a)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %w", ErrCorrupt, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return s, nil
}

func parseAgent[V geometry.Vector[V]](b []byte) (simulation.Agent[V], error) {
	var a simulation.Agent[V]
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return a, fmt.Errorf("%w: agent: %w", ErrCorrupt, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldKey && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return a, fmt.Errorf("%w: key: %w", ErrCorrupt, protowire.ParseError(n))
			}
			a.Key = v
			b = b[n:]
		case (num == fieldPosition || num == fieldVelocity) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return a, fmt.Errorf("%w: vector: %w", ErrCorrupt, protowire.ParseError(n))
			}
			vec, err := parsePacked[V](v)
			if err != nil {
				return a, err
			}
			if num == fieldPosition {
				a.Position = vec
			} else {
				a.Velocity = vec
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return a, fmt.Errorf("%w: agent: %w", ErrCorrupt, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return a, nil
}

func parsePacked[V geometry.Vector[V]](b []byte) (V, error) {
	var v V
	if len(b) != v.Dim()*8 {
		return v, fmt.Errorf("%w: %d bytes for a %d-component vector", simulation.ErrDimensionMismatch, len(b), v.Dim())
	}
	for a := 0; a < v.Dim(); a++ {
		bits, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return v, fmt.Errorf("%w: %w", ErrCorrupt, protowire.ParseError(n))
		}
		v = v.WithAxis(a, math.Float64frombits(bits))
		b = b[n:]
	}
	return v, nil
}

// WithParams returns a copy of s where every agent uses p, ready to be
// stepped again.
func WithParams[V geometry.Vector[V]](s *simulation.Snapshot[V], p *behavior.Params) *simulation.Snapshot[V] {
	out := &simulation.Snapshot[V]{Flock: s.Flock, Tick: s.Tick, Agents: make([]simulation.Agent[V], len(s.Agents))}
	for i, a := range s.Agents {
		a.Params = p
		out.Agents[i] = a
	}
	return out
}
