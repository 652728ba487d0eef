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
	"io"
	"reflect"
	"testing"
)

func TestReadDataElement(t *testing.T) {
	// see http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2 for byte
	// structure
	testCases := []struct {
		name     string
		bytes    []byte
		syntax   transferSyntax
		expected *DataElement
		err      error
	}{
		{
			"unsigned long ExplicitVRLittleEndian",
			[]byte{0x02, 0x00, 0x00, 0x00, 'U', 'L', 0x04, 0x00, 0xCA, 0x00, 0x00, 0x00},
			explicitVRLittleEndian,
			&DataElement{0x00020000, ULVR, []uint32{202}, 4},
			nil,
		},
		{
			"unsigned short ExplicitVRBigEndian",
			[]byte{0x00, 0x28, 0x00, 0x10, 'U', 'S', 0x00, 0x02, 0x02, 0x00},
			explicitVRBigEndian,
			&DataElement{RowsTag, USVR, []uint16{512}, 2},
			nil,
		},
		{
			"unsigned short ImplicitVRLittleEndian uses the dictionary",
			[]byte{0x00, 0x50, 0x10, 0x00, 0x02, 0x00, 0x00, 0x00, 0x66, 0x04},
			implicitVRLittleEndian,
			&DataElement{NumberOfPointsTag, USVR, []uint16{1126}, 2},
			nil,
		},
		{
			"text is split and trimmed",
			[]byte{0x00, 0x50, 0x30, 0x00, 'S', 'H', 0x08, 0x00, 'S', 'E', 'C', '\\', ' ', 'M', 'V', ' '},
			explicitVRLittleEndian,
			&DataElement{AxisUnitsTag, SHVR, []string{"SEC", "MV"}, 8},
			nil,
		},
		{
			"uid padding is removed",
			[]byte{0x02, 0x00, 0x10, 0x00, 'U', 'I', 0x14, 0x00,
				'1', '.', '2', '.', '8', '4', '0', '.', '1', '0', '0', '0', '8', '.', '1', '.', '2', '.', '5', 0},
			explicitVRLittleEndian,
			&DataElement{TransferSyntaxUIDTag, UIVR, []string{RLELosslessUID}, 20},
			nil,
		},
		{
			"bulk data",
			[]byte{0x00, 0x50, 0x00, 0x30, 'O', 'W', 0, 0, 0x04, 0, 0, 0, 1, 2, 3, 4},
			explicitVRLittleEndian,
			&DataElement{CurveDataTag, OWVR, []byte{1, 2, 3, 4}, 4},
			nil,
		},
		{
			"attribute tag",
			[]byte{0x00, 0x50, 0x10, 0x26, 'A', 'T', 0x04, 0x00, 0x28, 0x00, 0x10, 0x00},
			explicitVRLittleEndian,
			&DataElement{NewTag(0x5000, 0x2610), ATVR, []uint32{uint32(RowsTag)}, 4},
			nil,
		},
		{
			"empty value",
			[]byte{0x00, 0x50, 0x20, 0x00, 'C', 'S', 0x00, 0x00},
			explicitVRLittleEndian,
			&DataElement{TypeOfDataTag, CSVR, nil, 0},
			nil,
		},
		{
			"Item Delimitation Item",
			[]byte{0xFE, 0xFF, 0x0D, 0xE0, 0x00, 0x00, 0x00, 0x00},
			explicitVRLittleEndian,
			nil,
			io.EOF,
		},
		{
			"end of input",
			[]byte{},
			explicitVRLittleEndian,
			nil,
			io.EOF,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			element, err := readDataElement(dcmReaderFromBytes(tc.bytes), newReadState(tc.syntax))
			if err != tc.err {
				t.Fatalf("readDataElement(_, _) => (%v, %v), want (%v, %v)",
					element, err, tc.expected, tc.err)
			}

			if tc.expected != nil && !reflect.DeepEqual(*element, *tc.expected) {
				t.Fatalf("readDataElement(_, _) => (%v, %v) want (%v, %v)",
					*element, err, *tc.expected, tc.err)
			}
		})
	}
}

func TestReadDataElement_Errors(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
	}{
		{"partial tag", []byte{0x02, 0x00, 0x00}},
		{"unknown vr", []byte{0x02, 0x00, 0x00, 0x00, 'X', 'X', 0x04, 0x00}},
		{"missing length", []byte{0x02, 0x00, 0x00, 0x00, 'U', 'L'}},
		{"short value", []byte{0x02, 0x00, 0x00, 0x00, 'U', 'L', 0x04, 0x00, 0xCA}},
		{"odd length for us", []byte{0x28, 0x00, 0x10, 0x00, 'U', 'S', 0x03, 0x00, 1, 2, 3}},
		{"non zero item delimitation length", []byte{0xFE, 0xFF, 0x0D, 0xE0, 0x01, 0x00, 0x00, 0x00}},
		{"undefined length text", []byte{0x00, 0x50, 0x20, 0x00, 'U', 'T', 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			element, err := readDataElement(dcmReaderFromBytes(tc.bytes), newReadState(explicitVRLittleEndian))
			if err == nil || err == io.EOF {
				t.Fatalf("readDataElement(_, _) => (%v, %v), want error", element, err)
			}
		})
	}
}

func TestReadDataElement_SpecificCharacterSet(t *testing.T) {
	dw := newDcmWriter(explicitVRLittleEndian)
	dw.Text(SpecificCharacterSetTag, CSVR, "ISO_IR 144")
	dw.Element(CurveDescriptionTag, LOVR, []byte{0xB0, 0xD0})

	state := newReadState(explicitVRLittleEndian)
	dr := dcmReaderFromBytes(dw.Bytes())
	for i := 0; i < 2; i++ {
		e, err := readDataElement(dr, state)
		if err != nil {
			t.Fatalf("readDataElement(_, _) => %v", err)
		}
		if e.Tag != CurveDescriptionTag {
			continue
		}
		if want := []string{"\u0410\u0430"}; !reflect.DeepEqual(e.ValueField, want) {
			t.Fatalf("got %q, want %q", e.ValueField, want)
		}
	}
}

func TestReadSequence(t *testing.T) {
	item := newDcmWriter(explicitVRLittleEndian)
	item.Text(SOPClassUIDTag, UIVR, "1.2.840.10008.5.1.4.1.1.4")
	item.Text(SOPInstanceUIDTag, UIVR, "1.2.840.10008.5.1.4.1.1.5")

	defined := newDcmWriter(explicitVRLittleEndian)
	defined.Header(ReferencedOverlaySequenceTag, SQVR, uint32(8+item.Len()))
	defined.Tag(ItemTag)
	defined.UInt32(uint32(item.Len()))
	defined.Write(item.Bytes())

	undefined := newDcmWriter(explicitVRLittleEndian)
	undefined.Header(ReferencedOverlaySequenceTag, SQVR, UndefinedLength)
	undefined.Tag(ItemTag)
	undefined.UInt32(UndefinedLength)
	undefined.Write(item.Bytes())
	undefined.Delimiter(ItemDelimitationItemTag)
	undefined.Delimiter(SequenceDelimitationItemTag)

	// UN of undefined length is read as an implicit VR little endian sequence
	implicitItem := newDcmWriter(implicitVRLittleEndian)
	implicitItem.Text(SOPClassUIDTag, UIVR, "1.2.840.10008.5.1.4.1.1.4")
	implicitItem.Text(SOPInstanceUIDTag, UIVR, "1.2.840.10008.5.1.4.1.1.5")
	unknown := newDcmWriter(explicitVRLittleEndian)
	unknown.Header(ReferencedOverlaySequenceTag, UNVR, UndefinedLength)
	unknown.Tag(ItemTag)
	unknown.UInt32(uint32(implicitItem.Len()))
	unknown.Write(implicitItem.Bytes())
	unknown.Delimiter(SequenceDelimitationItemTag)

	tests := []struct {
		name  string
		bytes []byte
	}{
		{"explicit length", defined.Bytes()},
		{"undefined length", undefined.Bytes()},
		{"unknown vr", unknown.Bytes()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := readDataElement(dcmReaderFromBytes(tc.bytes), newReadState(explicitVRLittleEndian))
			if err != nil {
				t.Fatalf("readDataElement(_, _) => %v", err)
			}
			seq, ok := e.ValueField.(*Sequence)
			if !ok {
				t.Fatalf("got %T, want *Sequence", e.ValueField)
			}
			if !reflect.DeepEqual(*seq, nestedSeq) {
				t.Fatalf("got %v, want %v", seq, &nestedSeq)
			}
		})
	}
}

func TestReadEncapsulatedPixelData(t *testing.T) {
	dw := newDcmWriter(explicitVRLittleEndian)
	dw.Encapsulated([]byte{1, 2}, []byte{3, 4, 5, 6})

	e, err := readDataElement(dcmReaderFromBytes(dw.Bytes()), newReadState(explicitVRLittleEndian))
	if err != nil {
		t.Fatalf("readDataElement(_, _) => %v", err)
	}
	pixels, ok := e.ValueField.(*EncapsulatedPixelData)
	if !ok {
		t.Fatalf("got %T, want *EncapsulatedPixelData", e.ValueField)
	}
	// element header of 12 bytes, then the empty offset table item and one item header
	want := &EncapsulatedPixelData{Fragments: []Fragment{
		{Offset: 28, Data: []byte{1, 2}},
		{Offset: 38, Data: []byte{3, 4, 5, 6}},
	}}
	if !reflect.DeepEqual(pixels, want) {
		t.Fatalf("got %+v, want %+v", pixels, want)
	}
}

func TestReadNumberBinary(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		vr    *VR
		order binary.ByteOrder
		want  interface{}
	}{
		{"SS", []byte{0xFF, 0xFF}, SSVR, binary.LittleEndian, []int16{-1}},
		{"SL big endian", []byte{0x00, 0x00, 0x01, 0x00}, SLVR, binary.BigEndian, []int32{256}},
		{"FL", []byte{0x00, 0x00, 0x80, 0x3F}, FLVR, binary.LittleEndian, []float32{1}},
		{"FD", []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, FDVR, binary.LittleEndian, []float64{1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readNumberBinary(dcmReaderFromBytes(tc.bytes), uint32(len(tc.bytes)), tc.vr, tc.order)
			if err != nil {
				t.Fatalf("readNumberBinary(_) => %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
