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
)

// EncapsulatedPixelData is pixel data (7FE0,0010) in the encapsulated (compressed) format as
// described in http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4.
type EncapsulatedPixelData struct {
	// OffsetTable is the Basic Offset Table. It is empty when the file does not provide one.
	OffsetTable []uint32

	// Fragments holds the compressed fragments following the offset table in file order
	Fragments []Fragment
}

// Fragment is one item of encapsulated pixel data
type Fragment struct {
	// Offset is the number of bytes in the file preceding the fragment data
	Offset int64
	Data   []byte
}

// Frames groups the fragments by frame. With an offset table, fragments are split at the
// declared offsets. Without one, each fragment is assumed to be one frame when there are
// numberOfFrames fragments, and all fragments form a single frame when numberOfFrames is 1.
func (p *EncapsulatedPixelData) Frames(numberOfFrames int) ([][]byte, error) {
	if len(p.OffsetTable) > 0 {
		return p.framesFromOffsetTable()
	}
	if numberOfFrames == len(p.Fragments) {
		frames := make([][]byte, len(p.Fragments))
		for i, f := range p.Fragments {
			frames[i] = f.Data
		}
		return frames, nil
	}
	if numberOfFrames == 1 {
		var frame []byte
		for _, f := range p.Fragments {
			frame = append(frame, f.Data...)
		}
		return [][]byte{frame}, nil
	}
	return nil, fmt.Errorf("cannot map %d fragments onto %d frames without an offset table",
		len(p.Fragments), numberOfFrames)
}

func (p *EncapsulatedPixelData) framesFromOffsetTable() ([][]byte, error) {
	// offsets in the table are relative to the first byte of the item tag of the first fragment
	frames := make([][]byte, 0, len(p.OffsetTable))
	var pos uint32
	next := 0
	for _, f := range p.Fragments {
		if next < len(p.OffsetTable) && pos == p.OffsetTable[next] {
			frames = append(frames, nil)
			next++
		}
		if len(frames) == 0 {
			return nil, fmt.Errorf("first fragment does not start at offset %d", p.OffsetTable[0])
		}
		frames[len(frames)-1] = append(frames[len(frames)-1], f.Data...)
		pos += 8 /*item tag and length*/ + uint32(len(f.Data))
	}
	if next != len(p.OffsetTable) {
		return nil, fmt.Errorf("offset table declares %d frames, found %d", len(p.OffsetTable), next)
	}
	return frames, nil
}

func readEncapsulatedPixelData(dr *dcmReader) (*EncapsulatedPixelData, error) {
	// the item tags of encapsulated pixel data are always little endian
	order := binary.LittleEndian
	pixels := &EncapsulatedPixelData{}
	first := true
	for {
		tag, err := dr.Tag(order)
		if err != nil {
			return nil, fmt.Errorf("reading fragment tag: %v", unexpectedEOF(err))
		}
		length, err := dr.UInt32(order)
		if err != nil {
			return nil, fmt.Errorf("reading fragment length: %v", unexpectedEOF(err))
		}
		if tag == SequenceDelimitationItemTag {
			return pixels, nil
		}
		if tag != ItemTag {
			return nil, fmt.Errorf("invalid fragment tag, got %v want %v", tag, ItemTag)
		}
		if length == UndefinedLength {
			return nil, fmt.Errorf("expected fragment to be of explicit length")
		}

		offset := dr.Tell()
		data, err := dr.Bytes(int64(length))
		if err != nil {
			return nil, fmt.Errorf("reading fragment: %v", err)
		}

		if first {
			first = false
			if length%4 != 0 {
				return nil, fmt.Errorf("basic offset table length %d is not a multiple of 4", length)
			}
			for i := 0; i+4 <= len(data); i += 4 {
				pixels.OffsetTable = append(pixels.OffsetTable, order.Uint32(data[i:]))
			}
			continue
		}
		pixels.Fragments = append(pixels.Fragments, Fragment{Offset: offset, Data: data})
	}
}
