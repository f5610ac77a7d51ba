package cache

import (
	"bytes"
	"encoding/gob"

	"github.com/klauspost/compress/zstd"

	"github.com/morkit/eigo/vector"
)

// arrayPayload is the persisted form of an evaluation array.
//
// Changing this struct is a breaking change for existing persistent regions;
// entries written by older versions simply fail to decode and are recomputed.
type arrayPayload struct {
	Dim  int
	Rows [][]float64
}

// EncodeArray serializes an array for persistent regions: gob framing,
// zstd-compressed. Evaluation vectors of smooth operators compress well, and
// the cached solves are expensive enough that encode cost never dominates.
func EncodeArray(a vector.Array) ([]byte, error) {
	p := arrayPayload{Dim: a.Dim(), Rows: make([][]float64, a.Len())}
	for i := range p.Rows {
		p.Rows[i] = a.CopyAt(i)
	}

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if err := gob.NewEncoder(zw).Encode(p); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeArray is the inverse of EncodeArray.
func DecodeArray(data []byte) (vector.Array, error) {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var p arrayPayload
	if err := gob.NewDecoder(zr).Decode(&p); err != nil {
		return nil, err
	}

	out := vector.NewDense(p.Dim)
	for _, r := range p.Rows {
		if err := out.Append(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}
