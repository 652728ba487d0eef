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
	"strings"
)

// dcmWriter encodes data elements for test input
type dcmWriter struct {
	bytes.Buffer
	order    binary.ByteOrder
	implicit bool
}

func newDcmWriter(syntax transferSyntax) *dcmWriter {
	_, implicit := syntax.(implicitSyntax)
	return &dcmWriter{order: syntax.byteOrder(), implicit: implicit}
}

func (dw *dcmWriter) Tag(tag DataElementTag) {
	dw.UInt16(tag.GroupNumber())
	dw.UInt16(tag.ElementNumber())
}

func (dw *dcmWriter) Delimiter(tag DataElementTag) {
	dw.Tag(tag)
	dw.UInt32(0)
}

func (dw *dcmWriter) UInt16(v uint16) {
	buf := make([]byte, 2)
	dw.order.PutUint16(buf, v)
	dw.Write(buf)
}

func (dw *dcmWriter) UInt32(v uint32) {
	buf := make([]byte, 4)
	dw.order.PutUint32(buf, v)
	dw.Write(buf)
}

// Header writes the tag, VR and value length of an element
func (dw *dcmWriter) Header(tag DataElementTag, vr *VR, length uint32) {
	dw.Tag(tag)
	if dw.implicit {
		dw.UInt32(length)
		return
	}
	dw.WriteString(vr.Name)
	if vr.longLength {
		dw.UInt16(0)
		dw.UInt32(length)
		return
	}
	dw.UInt16(uint16(length))
}

// Element writes an element holding value, padded to even length
func (dw *dcmWriter) Element(tag DataElementTag, vr *VR, value []byte) {
	if len(value)%2 == 1 {
		pad := byte(0)
		if vr.kind == textVR {
			pad = ' '
		}
		value = append(append([]byte(nil), value...), pad)
	}
	dw.Header(tag, vr, uint32(len(value)))
	dw.Write(value)
}

func (dw *dcmWriter) Text(tag DataElementTag, vr *VR, values ...string) {
	dw.Element(tag, vr, []byte(strings.Join(values, "\\")))
}

func (dw *dcmWriter) UInt16s(tag DataElementTag, values ...uint16) {
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		dw.order.PutUint16(buf[2*i:], v)
	}
	dw.Element(tag, USVR, buf)
}

// Encapsulated writes pixel data of undefined length with an empty basic offset table
func (dw *dcmWriter) Encapsulated(fragments ...[]byte) {
	dw.Header(PixelDataTag, OBVR, UndefinedLength)
	le := &dcmWriter{order: binary.LittleEndian}
	le.Tag(ItemTag)
	le.UInt32(0)
	for _, f := range fragments {
		le.Tag(ItemTag)
		le.UInt32(uint32(len(f)))
		le.Write(f)
	}
	le.Delimiter(SequenceDelimitationItemTag)
	dw.Write(le.Bytes())
}

// fileBytes returns a DICOM file with a minimal meta header declaring uid followed by body
func fileBytes(uid string, body []byte) []byte {
	meta := &dcmWriter{order: binary.LittleEndian}
	meta.Element(FileMetaInformationVersionTag, OBVR, []byte{0, 1})
	meta.Text(TransferSyntaxUIDTag, UIVR, uid)

	out := &dcmWriter{order: binary.LittleEndian}
	out.Write(make([]byte, 128))
	out.WriteString("DICM")
	out.Header(FileMetaInformationGroupLengthTag, ULVR, 4)
	out.UInt32(uint32(meta.Len()))
	out.Write(meta.Bytes())
	out.Write(body)
	return out.Bytes()
}

// rleFrame returns an RLE frame made of the given encoded segments
func rleFrame(segments ...[]byte) []byte {
	var h RLEHeader
	h.NumSegments = uint32(len(segments))
	offset := uint32(RLEHeaderSize)
	for i, s := range segments {
		h.Offsets[i] = offset
		offset += uint32(len(s))
	}
	return append(rleHeaderBytes(h), bytes.Join(segments, nil)...)
}

func rleHeaderBytes(h RLEHeader) []byte {
	buf := make([]byte, RLEHeaderSize)
	binary.LittleEndian.PutUint32(buf, h.NumSegments)
	for i, off := range h.Offsets {
		binary.LittleEndian.PutUint32(buf[4*(i+1):], off)
	}
	return buf
}
