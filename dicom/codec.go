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
	"errors"
	"fmt"
	"io"
)

// ImageCodec decodes the frames of pixel data stored in an encapsulated transfer syntax
type ImageCodec interface {
	// CanDecode reports whether frames in the given transfer syntax can be decoded
	CanDecode(transferSyntaxUID string) bool

	// Decode reads one compressed frame from r and writes the decoded frame to w
	Decode(r io.Reader, w io.Writer) error
}

// SelectCodec returns the first codec able to decode the transfer syntax
func SelectCodec(transferSyntaxUID string, codecs ...ImageCodec) (ImageCodec, error) {
	for _, c := range codecs {
		if c.CanDecode(transferSyntaxUID) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%v: %w", transferSyntaxUID, ErrUnsupportedSyntax)
}

// FrameReassembler combines the decoded segments of an RLE frame into pixel data
type FrameReassembler interface {
	Reassemble(segments [][]byte, w io.Writer) error
}

// concatSegments writes the segments back to back in segment order
type concatSegments struct{}

func (concatSegments) Reassemble(segments [][]byte, w io.Writer) error {
	for i, seg := range segments {
		if _, err := w.Write(seg); err != nil {
			return fmt.Errorf("writing segment %d: %v", i, err)
		}
	}
	return nil
}

// PlaneInterleaver rebuilds pixels from the byte planes of an RLE frame. Segment k holds byte
// k%BytesPerSample (most significant first) of sample k/BytesPerSample of every pixel, as in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_G.2.
// The output is little endian with the samples of a pixel next to each other.
type PlaneInterleaver struct {
	BytesPerSample  int
	SamplesPerPixel int
}

func (p PlaneInterleaver) Reassemble(segments [][]byte, w io.Writer) error {
	planes := p.BytesPerSample * p.SamplesPerPixel
	if planes <= 0 {
		return fmt.Errorf("invalid pixel layout: %d bytes per sample, %d samples per pixel",
			p.BytesPerSample, p.SamplesPerPixel)
	}
	if len(segments) != planes {
		return fmt.Errorf("frame has %d segments, pixel layout needs %d: %w", len(segments), planes, ErrMalformedHeader)
	}

	pixels := len(segments[0])
	out := make([]byte, pixels*planes)
	for s, seg := range segments {
		if len(seg) != pixels {
			return fmt.Errorf("segment %d has %d bytes, want %d", s, len(seg), pixels)
		}
		sample, significance := s/p.BytesPerSample, s%p.BytesPerSample
		pos := sample*p.BytesPerSample + (p.BytesPerSample - 1 - significance)
		for px, b := range seg {
			out[px*planes+pos] = b
		}
	}
	_, err := w.Write(out)
	return err
}

// PixelLayout describes the uncompressed frames of an image
type PixelLayout struct {
	Rows            int
	Columns         int
	SamplesPerPixel int
	BitsAllocated   int
	NumberOfFrames  int
}

// FrameLength returns the number of bytes in one uncompressed frame
func (l PixelLayout) FrameLength() int {
	return l.Rows * l.Columns * l.SamplesPerPixel * l.BitsAllocated / 8
}

// ReadPixelLayout reads the image pixel module attributes of ds. SamplesPerPixel and
// NumberOfFrames default to 1 when absent.
func ReadPixelLayout(ds *DataSet) (PixelLayout, error) {
	layout := PixelLayout{SamplesPerPixel: 1, NumberOfFrames: 1}
	fields := []struct {
		tag      DataElementTag
		dst      *int
		required bool
	}{
		{RowsTag, &layout.Rows, true},
		{ColumnsTag, &layout.Columns, true},
		{BitsAllocatedTag, &layout.BitsAllocated, true},
		{SamplesPerPixelTag, &layout.SamplesPerPixel, false},
		{NumberOfFramesTag, &layout.NumberOfFrames, false},
	}
	for _, f := range fields {
		e, ok := ds.Elements[f.tag]
		if !ok || e.IsEmpty() {
			if f.required {
				return layout, fmt.Errorf("missing %v", f.tag)
			}
			continue
		}
		v, err := e.IntValue()
		if err != nil {
			return layout, err
		}
		if v <= 0 {
			return layout, fmt.Errorf("%v must be positive, got %d", f.tag, v)
		}
		*f.dst = int(v)
	}
	if layout.BitsAllocated%8 != 0 {
		return layout, fmt.Errorf("bits allocated %d is not a whole number of bytes", layout.BitsAllocated)
	}
	return layout, nil
}

// DecodeFrames decodes every frame of the encapsulated pixel data of ds. The codec is selected
// from the transfer syntax of the file meta header, and the segments are interleaved according
// to the image pixel module unless a reassembler is given in opts. A frame that fails to decode
// is left nil in the result and reported as a *FrameError in the joined error; the other frames
// are still returned.
func DecodeFrames(ds *DataSet, opts ...Option) ([][]byte, error) {
	uid, err := ds.TransferSyntaxUID()
	if err != nil {
		return nil, err
	}
	layout, err := ReadPixelLayout(ds)
	if err != nil {
		return nil, fmt.Errorf("reading pixel layout: %v", err)
	}

	interleave := WithReassembler(PlaneInterleaver{layout.BitsAllocated / 8, layout.SamplesPerPixel})
	rle := NewRLECodec(uint32(layout.FrameLength()), append([]Option{interleave}, opts...)...)
	codec, err := SelectCodec(uid, rle)
	if err != nil {
		return nil, err
	}

	frames, err := EncapsulatedFrames(ds, layout.NumberOfFrames)
	if err != nil {
		return nil, err
	}

	decoded := make([][]byte, len(frames))
	var errs []error
	for i, frame := range frames {
		var buf bytes.Buffer
		buf.Grow(layout.FrameLength())
		if err := codec.Decode(bytes.NewReader(frame), &buf); err != nil {
			errs = append(errs, &FrameError{Index: i, Err: err})
			continue
		}
		decoded[i] = buf.Bytes()
	}
	return decoded, errors.Join(errs...)
}

// FrameError reports the failure to decode one frame of a multi-frame image
type FrameError struct {
	Index int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("decoding frame %d: %v", e.Index, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// EncapsulatedFrames returns the compressed frames of the pixel data of ds
func EncapsulatedFrames(ds *DataSet, numberOfFrames int) ([][]byte, error) {
	e, ok := ds.Elements[PixelDataTag]
	if !ok {
		return nil, fmt.Errorf("missing %v", PixelDataTag)
	}
	pixels, ok := e.ValueField.(*EncapsulatedPixelData)
	if !ok {
		return nil, fmt.Errorf("pixel data is not encapsulated, got %T", e.ValueField)
	}
	return pixels.Frames(numberOfFrames)
}
