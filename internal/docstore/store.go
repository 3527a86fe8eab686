package docstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/faithsearch/litsearch/internal/errs"
)

// Record is one sidecar entry: (offset, length) into the blob, plus the
// codec used and the decompressed length needed to size the output
// buffer on read (spec.md §3: "Sequence of (offset, length) records in a
// sidecar, with data ... as independently-compressed records").
type Record struct {
	Offset     uint64
	Length     uint32
	DecodedLen uint32
	Codec      Codec
}

const recordWidth = 8 + 4 + 4 + 1

// Writer appends compressed stored-field blobs to an in-memory blob
// buffer, growing a parallel sidecar of Records. Grounded on the
// teacher's append-only primary storage (store/primary/gsfaprimary),
// generalized here with pluggable per-record compression instead of a
// single fixed codec.
type Writer struct {
	codec   Codec
	blob    []byte
	records []Record
}

func NewWriter(codec Codec) *Writer {
	return &Writer{codec: codec}
}

// Append compresses and appends one document's stored-field JSON,
// returning the local record index (the value retained alongside the
// document's local ID so a reader can resolve it back to a Record).
func (w *Writer) Append(storedJSON []byte) (int, error) {
	codec := w.codec
	compressed, err := compress(codec, storedJSON)
	if errors.Is(err, errIncompressible) {
		codec = CodecNone
		compressed = storedJSON
	} else if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrIoFailureFatal, err)
	}

	rec := Record{
		Offset:     uint64(len(w.blob)),
		Length:     uint32(len(compressed)),
		DecodedLen: uint32(len(storedJSON)),
		Codec:      codec,
	}
	w.blob = append(w.blob, compressed...)
	w.records = append(w.records, rec)
	return len(w.records) - 1, nil
}

// Blob returns the accumulated compressed byte stream, ready to append to
// docstore.bin.
func (w *Writer) Blob() []byte {
	return w.blob
}

// Records returns the sidecar entries built so far, in append order.
func (w *Writer) Records() []Record {
	return w.records
}

// EncodeSidecar serializes records to a flat little-endian table for
// persistence alongside docstore.bin.
func EncodeSidecar(records []Record) []byte {
	buf := make([]byte, 0, len(records)*recordWidth)
	for _, r := range records {
		buf = binary.LittleEndian.AppendUint64(buf, r.Offset)
		buf = binary.LittleEndian.AppendUint32(buf, r.Length)
		buf = binary.LittleEndian.AppendUint32(buf, r.DecodedLen)
		buf = append(buf, byte(r.Codec))
	}
	return buf
}

// DecodeSidecar parses a serialized record table.
func DecodeSidecar(buf []byte) ([]Record, error) {
	if len(buf)%recordWidth != 0 {
		return nil, fmt.Errorf("%w: docstore sidecar length not a multiple of record width", errs.ErrCorruptContainer)
	}
	n := len(buf) / recordWidth
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		b := buf[i*recordWidth : (i+1)*recordWidth]
		out[i] = Record{
			Offset:     binary.LittleEndian.Uint64(b[0:8]),
			Length:     binary.LittleEndian.Uint32(b[8:12]),
			DecodedLen: binary.LittleEndian.Uint32(b[12:16]),
			Codec:      Codec(b[16]),
		}
	}
	return out, nil
}

// Reader resolves stored records against a backing blob (an mmap'd or
// in-RAM docstore.bin region, per spec.md §4.7 access modes).
type Reader struct {
	blob    []byte
	records []Record
}

func NewReader(blob []byte, records []Record) *Reader {
	return &Reader{blob: blob, records: records}
}

// Get decompresses and returns the stored-field JSON for a local record
// index.
func (r *Reader) Get(recordIndex int) ([]byte, error) {
	if recordIndex < 0 || recordIndex >= len(r.records) {
		return nil, fmt.Errorf("%w: docstore record index out of range", errs.ErrDocIDInvalid)
	}
	rec := r.records[recordIndex]
	end := rec.Offset + uint64(rec.Length)
	if end > uint64(len(r.blob)) {
		return nil, fmt.Errorf("%w: docstore record runs past end of blob", errs.ErrCorruptContainer)
	}
	compressed := r.blob[rec.Offset:end]
	data, err := decompress(rec.Codec, compressed, int(rec.DecodedLen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIoFailureFatal, err)
	}
	return data, nil
}
