package cache

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// Record is a stored response: its cache policy and its body.
// A Record is never modified after it has been handed to a Store.
type Record struct {
	Policy *Policy `cbor:"policy"`
	Body   []byte  `cbor:"body"`
}

// On-disk framing:
//
//	magic(4) | version(1) | flags(1) | payload
//
// payload is the CBOR encoded Record, zstd compressed when flagCompressed is set.
const (
	recordVersion  byte = 2
	flagCompressed byte = 1 << 0
	headerLen           = 6

	// compressThreshold is the body size from which payloads are compressed.
	compressThreshold = 1024
)

var recordMagic = [4]byte{'P', 'K', 'D', 'X'}

var (
	codecOnce sync.Once
	encMode   cbor.EncMode
	decMode   cbor.DecMode
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func initCodec() {
	eo := cbor.CoreDetEncOptions()
	eo.Time = cbor.TimeRFC3339Nano
	if encMode, codecErr = eo.EncMode(); codecErr != nil {
		return
	}
	if decMode, codecErr = (cbor.DecOptions{}).DecMode(); codecErr != nil {
		return
	}
	if encoder, codecErr = zstd.NewWriter(nil); codecErr != nil {
		return
	}
	decoder, codecErr = zstd.NewReader(nil)
}

// EncodeRecord serializes r into the framed binary layout.
func EncodeRecord(r *Record) ([]byte, error) {
	if r == nil || r.Policy == nil {
		return nil, errors.New("record and policy are required")
	}
	codecOnce.Do(initCodec)
	if codecErr != nil {
		return nil, fmt.Errorf("init record codec: %w", codecErr)
	}

	payload, err := encMode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	var flags byte
	if len(r.Body) >= compressThreshold {
		payload = encoder.EncodeAll(payload, make([]byte, 0, len(payload)/2))
		flags |= flagCompressed
	}

	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))
	buf.Write(recordMagic[:])
	buf.WriteByte(recordVersion)
	buf.WriteByte(flags)
	buf.Write(payload)
	return buf.Bytes(), nil
}

// DecodeRecord parses data produced by EncodeRecord. Anything else, including
// records written by another store version, yields ErrCorruptRecord.
func DecodeRecord(data []byte) (*Record, error) {
	codecOnce.Do(initCodec)
	if codecErr != nil {
		return nil, fmt.Errorf("init record codec: %w", codecErr)
	}

	if len(data) < headerLen || !bytes.Equal(data[:4], recordMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptRecord)
	}
	if data[4] != recordVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptRecord, data[4])
	}
	flags := data[5]
	if flags&^flagCompressed != 0 {
		return nil, fmt.Errorf("%w: unknown flags %#x", ErrCorruptRecord, flags)
	}

	payload := data[headerLen:]
	if flags&flagCompressed != 0 {
		var err error
		payload, err = decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: decompress: %v", ErrCorruptRecord, err)
		}
	}

	var r Record
	if err := decMode.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if r.Policy == nil {
		return nil, fmt.Errorf("%w: missing policy", ErrCorruptRecord)
	}
	return &r, nil
}
