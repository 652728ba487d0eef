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
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

const (
	// RLEHeaderSize is the size in bytes of the header preceding the segments of an RLE frame
	RLEHeaderSize = 64

	// MaxRLESegments is the number of segment offsets an RLE header can hold
	MaxRLESegments = 15
)

// RLEHeader is the header of one RLE compressed frame as described in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_G.5
type RLEHeader struct {
	// NumSegments is the number of segments following the header
	NumSegments uint32

	// Offsets holds the position of each segment relative to the first byte of the header.
	// Only the first NumSegments entries are meaningful.
	Offsets [MaxRLESegments]uint32
}

// SegmentOffset returns the declared offset of segment i
func (h RLEHeader) SegmentOffset(i int) (uint32, error) {
	if i < 0 || i >= int(h.NumSegments) || i >= MaxRLESegments {
		return 0, fmt.Errorf("segment %d out of range [0,%d)", i, h.NumSegments)
	}
	return h.Offsets[i], nil
}

// SegmentOffsets returns the offsets of the declared segments
func (h RLEHeader) SegmentOffsets() []uint32 {
	n := h.NumSegments
	if n > MaxRLESegments {
		n = MaxRLESegments
	}
	return h.Offsets[:n]
}

func (h RLEHeader) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "NumSegments: %d\n", h.NumSegments)
	for i, off := range h.Offsets {
		fmt.Fprintf(&b, "%d: %d\n", i, off)
	}
	return b.String()
}

func (h RLEHeader) validate() error {
	if h.NumSegments > MaxRLESegments {
		return fmt.Errorf("%d segments exceeds the limit of %d: %w", h.NumSegments, MaxRLESegments, ErrMalformedHeader)
	}
	if h.NumSegments == 0 {
		return nil
	}
	if h.Offsets[0] != RLEHeaderSize {
		return fmt.Errorf("first segment offset is %d, want %d: %w", h.Offsets[0], RLEHeaderSize, ErrMalformedHeader)
	}
	offsets := h.SegmentOffsets()
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return fmt.Errorf("segment %d offset %d precedes segment %d offset %d: %w",
				i, offsets[i], i-1, offsets[i-1], ErrMalformedHeader)
		}
	}
	return nil
}

// ReadRLEHeader reads and validates the RLE header at the current position of r
func ReadRLEHeader(r io.Reader, order binary.ByteOrder) (RLEHeader, error) {
	return readRLEHeader(newDcmReader(r), order)
}

func readRLEHeader(dr *dcmReader, order binary.ByteOrder) (RLEHeader, error) {
	var h RLEHeader
	buf, err := dr.Bytes(RLEHeaderSize)
	if err != nil {
		return h, fmt.Errorf("reading rle header: %w", truncated(err))
	}
	h.NumSegments = order.Uint32(buf)
	for i := range h.Offsets {
		h.Offsets[i] = order.Uint32(buf[4*(i+1):])
	}
	return h, h.validate()
}

// RLECodec decodes frames compressed with the RLE Lossless transfer syntax. An RLECodec keeps
// per call diagnostics and is not safe for concurrent use; use one codec per goroutine.
type RLECodec struct {
	// Length is the size in bytes of one decoded frame
	Length uint32

	opts      options
	bytesRead int64
}

// NewRLECodec returns a codec decoding frames of length bytes
func NewRLECodec(length uint32, opts ...Option) *RLECodec {
	return &RLECodec{Length: length, opts: newOptions(opts)}
}

var rleTransferSyntaxes = map[string]bool{
	RLELosslessUID: true,
}

// CanDecode reports whether the transfer syntax is compressed with RLE
func (c *RLECodec) CanDecode(transferSyntaxUID string) bool {
	return rleTransferSyntaxes[transferSyntaxUID]
}

// BytesRead returns the number of input bytes consumed by the last call to Decode
func (c *RLECodec) BytesRead() int64 {
	return c.bytesRead
}

// Decode reads one RLE frame (header and segments) from r and writes the decoded frame to w.
// Each segment decodes to Length / NumSegments bytes. The position of r when each segment
// starts must equal its declared offset; the codec never seeks over unexpected bytes.
func (c *RLECodec) Decode(r io.Reader, w io.Writer) error {
	dr := newDcmReader(r)
	defer func() { c.bytesRead = dr.Tell() }()

	header, err := readRLEHeader(dr, c.opts.order)
	if err != nil {
		return err
	}
	segments, err := c.decodeSegments(dr, header)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return nil
	}
	return c.opts.reassembler.Reassemble(segments, w)
}

func (c *RLECodec) decodeSegments(dr *dcmReader, header RLEHeader) ([][]byte, error) {
	offsets := header.SegmentOffsets()
	if len(offsets) == 0 {
		c.opts.lo.Debug("rle frame has no segments")
		return nil, nil
	}
	if c.Length%uint32(len(offsets)) != 0 {
		return nil, fmt.Errorf("frame length %d is not divisible by %d segments: %w",
			c.Length, len(offsets), ErrMalformedHeader)
	}
	target := int(c.Length / uint32(len(offsets)))

	segments := make([][]byte, len(offsets))
	for i, offset := range offsets {
		start := dr.Tell()
		if start != int64(offset) {
			return nil, fmt.Errorf("segment %d: at byte %d, header declares %d: %w", i, start, offset, ErrStreamDesync)
		}

		// a segment never reads into the next declared segment
		sr := dr
		if i+1 < len(offsets) {
			sr = dr.Limit(int64(offsets[i+1] - offset))
		}
		seg, err := decodeSegment(sr, target)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segments[i] = seg
		c.opts.lo.Debug("decoded rle segment", "segment", i, "offset", offset,
			"consumed", dr.Tell()-start, "decoded", len(seg))
	}
	c.opts.lo.Debug("decoded rle frame", "segments", len(segments), "consumed", dr.Tell())
	return segments, nil
}

// decodeSegment decodes the PackBits style runs of one segment until target bytes are produced.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_G.3.2
func decodeSegment(dr *dcmReader, target int) ([]byte, error) {
	out := make([]byte, 0, target)
	for len(out) < target {
		pos := dr.Tell()
		b, err := dr.Byte()
		if err != nil {
			return nil, fmt.Errorf("reading control byte at %d: %w", pos, truncated(err))
		}

		switch n := int8(b); {
		case n >= 0:
			count := int(n) + 1
			if len(out)+count > target {
				return nil, fmt.Errorf("literal run of %d at %d after %d of %d bytes: %w",
					count, pos, len(out), target, ErrSegmentOverrun)
			}
			literal, err := dr.Bytes(int64(count))
			if err != nil {
				return nil, fmt.Errorf("reading literal run at %d: %w", pos, truncated(err))
			}
			out = append(out, literal...)
		case n >= -127:
			count := int(-n) + 1
			if len(out)+count > target {
				return nil, fmt.Errorf("replicate run of %d at %d after %d of %d bytes: %w",
					count, pos, len(out), target, ErrSegmentOverrun)
			}
			v, err := dr.Byte()
			if err != nil {
				return nil, fmt.Errorf("reading replicate run at %d: %w", pos, truncated(err))
			}
			for k := 0; k < count; k++ {
				out = append(out, v)
			}
		default:
			// -128 is a no-op
		}
	}
	return out, nil
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncatedInput
	}
	return err
}
