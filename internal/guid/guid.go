// Package guid defines the 128-bit identifier handed out to scene objects and
// their components.
//
// A Guid is persisted either as 16 raw bytes or as two little-endian 64-bit
// words. The all-zero value is Empty and means "no identity"; it is never
// registered.
package guid

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidLength = errors.New("guid: encoded value must be exactly 16 bytes")
	ErrInvalidFormat = errors.New("guid: malformed text form")
)

// Size is the length of the raw encoding.
const Size = 16

// Guid is a 128-bit value type. Compare with ==.
type Guid [Size]byte

// Empty is the reserved "no identity" value.
var Empty Guid

// New mints a fresh random identifier.
func New() Guid {
	for {
		g := Guid(uuid.New())
		if !g.IsEmpty() {
			return g
		}
	}
}

// FromWords rebuilds a Guid from its two-word form.
func FromWords(low, high uint64) Guid {
	var g Guid
	binary.LittleEndian.PutUint64(g[0:8], low)
	binary.LittleEndian.PutUint64(g[8:16], high)
	return g
}

// Words splits g into its low (bytes 0-7) and high (bytes 8-15) words.
func (g Guid) Words() (low, high uint64) {
	return binary.LittleEndian.Uint64(g[0:8]), binary.LittleEndian.Uint64(g[8:16])
}

// FromBytes decodes the raw 16-byte form.
func FromBytes(b []byte) (Guid, error) {
	var g Guid
	if len(b) != Size {
		return Empty, fmt.Errorf("%w: got %d", ErrInvalidLength, len(b))
	}
	copy(g[:], b)
	return g, nil
}

// Decode is the lenient form of FromBytes: anything that is not a valid
// encoding decodes to Empty, which callers treat as unassigned.
func Decode(b []byte) Guid {
	g, err := FromBytes(b)
	if err != nil {
		return Empty
	}
	return g
}

// Bytes returns a copy of the raw encoding.
func (g Guid) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, g[:])
	return b
}

func (g Guid) IsEmpty() bool {
	return g == Empty
}

func (g Guid) String() string {
	return uuid.UUID(g).String()
}

// Short is the first block of the text form, for UI labels.
func (g Guid) Short() string {
	return g.String()[:8]
}

// Parse reads the canonical text form. The empty string parses to Empty.
func Parse(s string) (Guid, error) {
	if s == "" {
		return Empty, nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return Empty, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return Guid(u), nil
}

// ParseOrEmpty is Parse without the error.
func ParseOrEmpty(s string) Guid {
	g, err := Parse(s)
	if err != nil {
		return Empty
	}
	return g
}

func (g Guid) MarshalText() ([]byte, error) {
	if g.IsEmpty() {
		return []byte{}, nil
	}
	return []byte(g.String()), nil
}

func (g *Guid) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (g Guid) MarshalBinary() ([]byte, error) {
	return g.Bytes(), nil
}

func (g *Guid) UnmarshalBinary(data []byte) error {
	parsed, err := FromBytes(data)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
