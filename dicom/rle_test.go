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
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestDecodeSegment(t *testing.T) {
	tests := []struct {
		name     string
		in       []byte
		target   int
		want     []byte
		consumed int64
	}{
		{
			"literal run",
			[]byte{0x02, 'A', 'B', 'C'},
			3,
			[]byte{'A', 'B', 'C'},
			4,
		},
		{
			"replicate run",
			[]byte{0xFE, 'X'},
			3,
			[]byte{'X', 'X', 'X'},
			2,
		},
		{
			"no-op produces nothing",
			[]byte{0x80, 0x00, 'A'},
			1,
			[]byte{'A'},
			3,
		},
		{
			"longest replicate run",
			[]byte{0x81, 0x07},
			128,
			bytes.Repeat([]byte{0x07}, 128),
			2,
		},
		{
			"mixed runs",
			[]byte{0x00, 0x01, 0xFF, 0x02, 0x80, 0x01, 0x03, 0x04},
			5,
			[]byte{0x01, 0x02, 0x02, 0x03, 0x04},
			8,
		},
		{
			"stops at target",
			[]byte{0x00, 0x01, 0x00, 0x02},
			1,
			[]byte{0x01},
			2,
		},
		{
			"empty target reads nothing",
			[]byte{0x00, 0x01},
			0,
			[]byte{},
			0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dr := dcmReaderFromBytes(tc.in)
			got, err := decodeSegment(dr, tc.target)
			if err != nil {
				t.Fatalf("decodeSegment(_, %d) => %v", tc.target, err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if dr.Tell() != tc.consumed {
				t.Fatalf("consumed %d bytes, want %d", dr.Tell(), tc.consumed)
			}
		})
	}
}

func TestDecodeSegment_Errors(t *testing.T) {
	tests := []struct {
		name   string
		in     []byte
		target int
		want   error
	}{
		{"no control byte", []byte{}, 1, ErrTruncatedInput},
		{"only no-op", []byte{0x80}, 1, ErrTruncatedInput},
		{"short literal run", []byte{0x02, 'A'}, 3, ErrTruncatedInput},
		{"replicate run without value", []byte{0xFE}, 3, ErrTruncatedInput},
		{"literal run overshoots", []byte{0x02, 'A', 'B', 'C'}, 2, ErrSegmentOverrun},
		{"replicate run overshoots", []byte{0x00, 'A', 0xFE, 'X'}, 3, ErrSegmentOverrun},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeSegment(dcmReaderFromBytes(tc.in), tc.target)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDecodeSegment_RunProperties(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := int8(r.Intn(256) - 128)
		value := byte(r.Intn(256))
		var in, want []byte
		switch {
		case n >= 0:
			in = append(in, byte(n))
			for k := 0; k <= int(n); k++ {
				in = append(in, value+byte(k))
				want = append(want, value+byte(k))
			}
		case n >= -127:
			in = []byte{byte(n), value}
			want = bytes.Repeat([]byte{value}, int(-n)+1)
		default:
			// a no-op followed by a one byte literal run
			in = []byte{byte(n), 0x00, value}
			want = []byte{value}
		}

		dr := dcmReaderFromBytes(in)
		got, err := decodeSegment(dr, len(want))
		if err != nil {
			t.Fatalf("control byte %d: decodeSegment(_, %d) => %v", n, len(want), err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("control byte %d: got %v, want %v", n, got, want)
		}
		if dr.Tell() != int64(len(in)) {
			t.Fatalf("control byte %d: consumed %d bytes, want %d", n, dr.Tell(), len(in))
		}
	}
}

func TestReadRLEHeader(t *testing.T) {
	var twoSegments RLEHeader
	twoSegments.NumSegments = 2
	twoSegments.Offsets[0] = 64
	twoSegments.Offsets[1] = 100

	got, err := ReadRLEHeader(bytes.NewReader(rleHeaderBytes(twoSegments)), binary.LittleEndian)
	if err != nil {
		t.Fatalf("ReadRLEHeader(_) => %v", err)
	}
	if got != twoSegments {
		t.Fatalf("got %v, want %v", got, twoSegments)
	}
	if want := []uint32{64, 100}; !reflect.DeepEqual(got.SegmentOffsets(), want) {
		t.Fatalf("SegmentOffsets() => %v, want %v", got.SegmentOffsets(), want)
	}
	if _, err := got.SegmentOffset(2); err == nil {
		t.Fatalf("SegmentOffset(2) of 2 segments should fail")
	}
	if off, err := got.SegmentOffset(1); err != nil || off != 100 {
		t.Fatalf("SegmentOffset(1) => (%v, %v), want (100, nil)", off, err)
	}
}

func TestReadRLEHeader_BigEndian(t *testing.T) {
	buf := make([]byte, RLEHeaderSize)
	binary.BigEndian.PutUint32(buf, 1)
	binary.BigEndian.PutUint32(buf[4:], 64)

	got, err := ReadRLEHeader(bytes.NewReader(buf), binary.BigEndian)
	if err != nil {
		t.Fatalf("ReadRLEHeader(_) => %v", err)
	}
	if got.NumSegments != 1 || got.Offsets[0] != 64 {
		t.Fatalf("got %v, want 1 segment at 64", got)
	}
}

func TestReadRLEHeader_Errors(t *testing.T) {
	header := func(n uint32, offsets ...uint32) []byte {
		var h RLEHeader
		h.NumSegments = n
		copy(h.Offsets[:], offsets)
		return rleHeaderBytes(h)
	}
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"sixteen segments", header(16, 64), ErrMalformedHeader},
		{"first offset is not the header size", header(1, 60), ErrMalformedHeader},
		{"first offset is zero", header(2, 0, 64), ErrMalformedHeader},
		{"decreasing offsets", header(3, 64, 80, 70), ErrMalformedHeader},
		{"short header", header(1, 64)[:40], ErrTruncatedInput},
		{"empty input", []byte{}, ErrTruncatedInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadRLEHeader(bytes.NewReader(tc.in), binary.LittleEndian)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRLECodec_Decode(t *testing.T) {
	tests := []struct {
		name   string
		frame  []byte
		length uint32
		want   []byte
	}{
		{
			"zero segments",
			rleHeaderBytes(RLEHeader{}),
			16,
			nil,
		},
		{
			"one segment",
			rleFrame([]byte{0x02, 'A', 'B', 'C', 0xFE, 'X'}),
			6,
			[]byte("ABCXXX"),
		},
		{
			"segments are concatenated in order",
			rleFrame([]byte{0xFD, 0x01}, []byte{0x03, 1, 2, 3, 4}, []byte{0x80, 0xFD, 0xFF}),
			12,
			[]byte{1, 1, 1, 1, 1, 2, 3, 4, 0xFF, 0xFF, 0xFF, 0xFF},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codec := NewRLECodec(tc.length)
			var out bytes.Buffer
			if err := codec.Decode(bytes.NewReader(tc.frame), &out); err != nil {
				t.Fatalf("Decode(_, _) => %v", err)
			}
			if !bytes.Equal(out.Bytes(), tc.want) {
				t.Fatalf("got %v, want %v", out.Bytes(), tc.want)
			}
			if codec.BytesRead() != int64(len(tc.frame)) {
				t.Fatalf("BytesRead() => %d, want %d", codec.BytesRead(), len(tc.frame))
			}
		})
	}
}

func TestRLECodec_Decode_Errors(t *testing.T) {
	gap := rleFrame([]byte{0x00, 'A'}, []byte{0x00, 'B'})
	// declare the second segment one byte later than where the first one ends
	binary.LittleEndian.PutUint32(gap[8:], 67)
	gap = append(gap[:66], append([]byte{0x00}, gap[66:]...)...)

	tests := []struct {
		name   string
		frame  []byte
		length uint32
		want   error
	}{
		{
			"segment count exceeds the limit",
			append(rleHeaderBytes(RLEHeader{NumSegments: 16}), 0x00, 'A'),
			1,
			ErrMalformedHeader,
		},
		{
			"first offset is not the header size",
			rleHeaderBytes(RLEHeader{NumSegments: 1, Offsets: [MaxRLESegments]uint32{32}}),
			1,
			ErrMalformedHeader,
		},
		{
			"length not divisible by the segment count",
			rleFrame([]byte{0x00, 'A'}, []byte{0x00, 'B'}),
			3,
			ErrMalformedHeader,
		},
		{
			"segment does not start at its offset",
			gap,
			2,
			ErrStreamDesync,
		},
		{
			"truncated segment",
			rleFrame([]byte{0x03, 'A', 'B'}),
			4,
			ErrTruncatedInput,
		},
		{
			"segment reads into the next segment",
			rleFrame([]byte{0x00, 'A'}, []byte{0x00, 'B'}),
			4,
			ErrTruncatedInput,
		},
		{
			"run overshoots the segment",
			rleFrame([]byte{0xFC, 'A'}),
			3,
			ErrSegmentOverrun,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := NewRLECodec(tc.length).Decode(bytes.NewReader(tc.frame), &out)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if out.Len() != 0 {
				t.Fatalf("failed decode wrote %d bytes", out.Len())
			}
		})
	}
}

func TestRLECodec_CanDecode(t *testing.T) {
	codec := NewRLECodec(0)
	tests := []struct {
		uid  string
		want bool
	}{
		{RLELosslessUID, true},
		{ExplicitVRLittleEndianUID, false},
		{JPEGBaselineUID, false},
		{"", false},
	}
	for _, tc := range tests {
		if got := codec.CanDecode(tc.uid); got != tc.want {
			t.Fatalf("CanDecode(%q) => %v, want %v", tc.uid, got, tc.want)
		}
	}
}

func TestRLECodec_WithByteOrder(t *testing.T) {
	frame := make([]byte, RLEHeaderSize)
	binary.BigEndian.PutUint32(frame, 1)
	binary.BigEndian.PutUint32(frame[4:], 64)
	frame = append(frame, 0xFE, 0x09)

	var out bytes.Buffer
	if err := NewRLECodec(3, WithByteOrder(binary.BigEndian)).Decode(bytes.NewReader(frame), &out); err != nil {
		t.Fatalf("Decode(_, _) => %v", err)
	}
	if want := []byte{9, 9, 9}; !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("got %v, want %v", out.Bytes(), want)
	}
}
