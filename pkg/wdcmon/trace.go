// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction of a traced transfer
type Direction uint8

const (
	DirTx Direction = iota // host to board
	DirRx                  // board to host
)

func (d Direction) String() string {
	switch d {
	case DirTx:
		return "TX"
	case DirRx:
		return "RX"
	default:
		return "??"
	}
}

// TraceRecord is one read or write on the wire. Records are stored as a
// stream of CBOR maps with integer keys.
type TraceRecord struct {
	Data []byte    `cbor:"3,keyasint"`
	Err  string    `cbor:"4,keyasint,omitempty"`
	Seq  uint64    `cbor:"0,keyasint"`
	Time int64     `cbor:"1,keyasint"` // unix nanoseconds
	Dir  Direction `cbor:"2,keyasint"`
}

// Timestamp returns the record time
func (r *TraceRecord) Timestamp() time.Time {
	return time.Unix(0, r.Time)
}

// TraceTransport wraps a Transport and records every read and write to a
// CBOR trace stream. Reads that return nothing and no error (timeouts) are
// not recorded.
type TraceTransport struct {
	Transport
	enc    *cbor.Encoder
	seq    uint64
	encErr error
}

// NewTraceTransport returns t with tracing to w
func NewTraceTransport(t Transport, w io.Writer) *TraceTransport {
	return &TraceTransport{
		Transport: t,
		enc:       cbor.NewEncoder(w),
	}
}

// Read implements io.Reader
func (t *TraceTransport) Read(p []byte) (int, error) {
	n, err := t.Transport.Read(p)
	if n > 0 || err != nil {
		t.record(DirRx, p[:n], err)
	}
	return n, err
}

// Write implements io.Writer
func (t *TraceTransport) Write(p []byte) (int, error) {
	n, err := t.Transport.Write(p)
	t.record(DirTx, p[:n], err)
	return n, err
}

// ResetInputBuffer forwards to the wrapped transport when it supports it
func (t *TraceTransport) ResetInputBuffer() error {
	if flusher, ok := t.Transport.(InputFlusher); ok {
		return flusher.ResetInputBuffer()
	}
	return nil
}

// Err returns the first error hit while writing the trace. Tracing never
// fails the traced operation.
func (t *TraceTransport) Err() error {
	return t.encErr
}

func (t *TraceTransport) record(dir Direction, data []byte, ioErr error) {
	if t.encErr != nil {
		return
	}

	rec := TraceRecord{
		Seq:  t.seq,
		Time: time.Now().UnixNano(),
		Dir:  dir,
		Data: append([]byte(nil), data...),
	}
	if ioErr != nil {
		rec.Err = ioErr.Error()
	}
	t.seq++

	if err := t.enc.Encode(rec); err != nil {
		t.encErr = fmt.Errorf("failed to write trace record %d: %w", rec.Seq, err)
	}
}

// TraceReader decodes a trace stream written by TraceTransport
type TraceReader struct {
	dec *cbor.Decoder
}

// NewTraceReader creates a reader over r
func NewTraceReader(r io.Reader) *TraceReader {
	return &TraceReader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream
func (r *TraceReader) Next() (*TraceRecord, error) {
	var rec TraceRecord
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode trace record: %w", err)
	}
	return &rec, nil
}

// ReadAllTrace decodes every record in r
func ReadAllTrace(r io.Reader) ([]*TraceRecord, error) {
	tr := NewTraceReader(r)
	var records []*TraceRecord
	for {
		rec, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
