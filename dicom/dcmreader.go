// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dicom

import (
	"bytes"
	"encoding/binary"
	"io"
)

// preallocLimit bounds the buffer allocated up front for a read whose length comes from the input
const preallocLimit = 1 << 16

// dcmReader is a wrapper around io.Reader, providing convenience methods for
// parsing tags, numbers, strings. It tracks the number of bytes consumed which serves as the
// stream position.
type dcmReader struct {
	cr *countReader
}

func newDcmReader(r io.Reader) *dcmReader {
	return &dcmReader{&countReader{r: r}}
}

// Tell returns the number of bytes consumed from the underlying reader
func (dr *dcmReader) Tell() int64 {
	return dr.cr.bytesRead
}

func (dr *dcmReader) Tag(order binary.ByteOrder) (DataElementTag, error) {
	group, err := dr.UInt16(order)
	if err != nil {
		return 0, err
	}
	element, err := dr.UInt16(order)
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	return NewTag(group, element), nil
}

// Limit returns a dcmReader that shares the same underlying io.Reader that returns
// EOF after reading n bytes.
func (dr *dcmReader) Limit(n int64) *dcmReader {
	return &dcmReader{limitCountReader(dr.cr, n)}
}

// Skip advances the input stream by n bytes
func (dr *dcmReader) Skip(n int64) error {
	got, err := io.CopyN(io.Discard, dr.cr, n)
	if err == io.EOF && got < n {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Byte returns the next byte of the input stream
func (dr *dcmReader) Byte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(dr.cr, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// String returns a string of length n from the input stream
func (dr *dcmReader) String(n int64) (string, error) {
	b, err := dr.Bytes(n)
	return string(b), err
}

// Bytes returns a byte slice of size n from the input stream. Fewer than n bytes remaining
// yields io.ErrUnexpectedEOF.
func (dr *dcmReader) Bytes(n int64) ([]byte, error) {
	if n <= preallocLimit {
		b := make([]byte, n)
		if _, err := io.ReadFull(dr.cr, b); err != nil {
			if err == io.EOF && n > 0 {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return b, nil
	}

	var buf bytes.Buffer
	got, err := io.CopyN(&buf, dr.cr, n)
	if got < n {
		return nil, unexpectedEOF(err)
	}
	return buf.Bytes(), nil
}

// UInt32 returns a uint32 from the input stream
func (dr *dcmReader) UInt32(order binary.ByteOrder) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(dr.cr, b[:]); err != nil {
		return 0, err
	}
	return order.Uint32(b[:]), nil
}

// UInt16 returns a uint16 from the input stream
func (dr *dcmReader) UInt16(order binary.ByteOrder) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(dr.cr, b[:]); err != nil {
		return 0, err
	}
	return order.Uint16(b[:]), nil
}

// unexpectedEOF converts io.EOF into io.ErrUnexpectedEOF for reads that started a structure
func unexpectedEOF(err error) error {
	if err == io.EOF || err == nil {
		return io.ErrUnexpectedEOF
	}
	return err
}

// countReader is an io.Reader that counts how many bytes read
type countReader struct {
	r         io.Reader
	bytesRead int64 // number of bytes read
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.bytesRead += int64(n)
	return n, err
}

// limitCountReader returns a *countReader that reads from cr and stops with EOF after reading
// n bytes (or cr reaches EOF). The returned *countReader starts counting at the current position
// of cr so both report positions relative to the same origin.
func limitCountReader(cr *countReader, n int64) *countReader {
	return &countReader{io.LimitReader(cr, n), cr.bytesRead}
}
