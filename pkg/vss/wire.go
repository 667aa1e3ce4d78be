package vss

import (
	"fmt"
	"math/big"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
)

// WireShare is the serializable form of a Share. Commitments are canonical
// group element encodings.
type WireShare struct {
	Index       int      `json:"index"`
	Threshold   int      `json:"threshold"`
	Data        []byte   `json:"data"`
	Blind       []byte   `json:"blind"`
	Commitments [][]byte `json:"commitments"`
}

// ToWire converts a share to its serializable form
func (s *Share) ToWire() *WireShare {
	w := &WireShare{
		Index:       s.Index,
		Threshold:   s.Threshold,
		Commitments: EncodeElements(s.Commitments),
	}
	if s.Data != nil {
		w.Data = s.Data.Bytes()
	}
	if s.Blind != nil {
		w.Blind = s.Blind.Bytes()
	}
	return w
}

// FromWire decodes a share. Values must already be reduced mod q and every
// commitment must decode to a group element; the Feldman check is left to
// Validate.
func FromWire(ctx *GroupContext, w *WireShare) (*Share, error) {
	if w == nil {
		return nil, ErrMalformedShare
	}

	data := new(big.Int).SetBytes(w.Data)
	blind := new(big.Int).SetBytes(w.Blind)
	if data.Cmp(ctx.order) >= 0 || blind.Cmp(ctx.order) >= 0 {
		return nil, fmt.Errorf("%w: value not reduced", ErrMalformedShare)
	}

	commitments, err := DecodeElements(ctx.Group(), w.Commitments)
	if err != nil {
		return nil, err
	}

	return &Share{
		Index:       w.Index,
		Threshold:   w.Threshold,
		Data:        data,
		Blind:       blind,
		Commitments: commitments,
	}, nil
}

// EncodeElements encodes a list of group elements
func EncodeElements(elements []group.Element) [][]byte {
	out := make([][]byte, len(elements))
	for i, e := range elements {
		if e != nil {
			out[i] = e.Bytes()
		}
	}
	return out
}

// DecodeElements decodes a list of group elements
func DecodeElements(g group.Group, encoded [][]byte) ([]group.Element, error) {
	out := make([]group.Element, len(encoded))
	for i, b := range encoded {
		e, err := g.ElementFromBytes(b)
		if err != nil {
			return nil, fmt.Errorf("%w: commitment %d: %v", ErrMalformedShare, i, err)
		}
		out[i] = e
	}
	return out, nil
}
