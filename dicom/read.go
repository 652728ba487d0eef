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
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
)

// readState carries what an element needs to be decoded: the syntax of the stream and the
// character repertoire most recently declared by (0008,0005).
type readState struct {
	syntax transferSyntax
	coding encoding.Encoding
}

func newReadState(syntax transferSyntax) *readState {
	return &readState{syntax: syntax, coding: defaultCharacterRepertoire}
}

// readDataElement reads the next element from dr. io.EOF is returned at the end of the input and
// when an item delimitation item terminates a nested data set of undefined length.
func readDataElement(dr *dcmReader, state *readState) (*DataElement, error) {
	order := state.syntax.byteOrder()
	tag, err := dr.Tag(order)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading tag: %v", err)
	}

	if tag == ItemDelimitationItemTag {
		length, err := dr.UInt32(order)
		if err != nil {
			return nil, fmt.Errorf("reading length of item delimitation: %v", err)
		}
		if length != 0 {
			return nil, fmt.Errorf("wrong length for item delimiter. got %v, want %v", length, 0)
		}
		return nil, io.EOF
	}

	vr, err := state.syntax.readVR(dr, tag)
	if err != nil {
		return nil, fmt.Errorf("reading vr of %v: %v", tag, err)
	}

	length, err := state.syntax.readValueLength(dr, vr)
	if err != nil {
		return nil, fmt.Errorf("reading length of %v: %v", tag, unexpectedEOF(err))
	}

	value, err := readValue(dr, tag, vr, length, state)
	if err != nil {
		return nil, fmt.Errorf("reading value of %v: %v", tag, err)
	}

	element := &DataElement{Tag: tag, VR: vr, ValueField: value, ValueLength: length}
	if tag == SpecificCharacterSetTag {
		coding, err := encodingForElement(element)
		if err != nil {
			return nil, err
		}
		state.coding = coding
	}
	return element, nil
}

func readValue(dr *dcmReader, tag DataElementTag, vr *VR, length uint32, state *readState) (interface{}, error) {
	if length == UndefinedLength {
		switch {
		case vr == SQVR:
			return readSequence(dr, length, state)
		case tag == PixelDataTag:
			// (7FE0,0010) with undefined length is pixel data in the encapsulated format
			// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
			return readEncapsulatedPixelData(dr)
		case vr == UNVR:
			// UN of undefined length holds a sequence in implicit VR little endian
			// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2.2
			return readSequence(dr, length, &readState{implicitVRLittleEndian, state.coding})
		}
		return nil, fmt.Errorf("undefined length is not supported for vr %v", vr)
	}
	if length == 0 {
		if vr == SQVR {
			return &Sequence{}, nil
		}
		return nil, nil
	}

	switch vr.kind {
	case textVR:
		return readText(dr, length, vr, state.coding)
	case uniqueIdentifierVR:
		return readUID(dr, length)
	case numberBinaryVR:
		return readNumberBinary(dr, length, vr, state.syntax.byteOrder())
	case bulkDataVR:
		return dr.Bytes(int64(length))
	case tagVR:
		return readTags(dr, length, state.syntax.byteOrder())
	case sequenceVR:
		return readSequence(dr, length, state)
	}
	return nil, fmt.Errorf("unknown vr kind found: %v", vr.kind)
}

func readText(dr *dcmReader, length uint32, vr *VR, coding encoding.Encoding) ([]string, error) {
	field, err := dr.String(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading text field value: %v", err)
	}

	strs := []string{field}
	if !vr.singleValued() {
		strs = strings.Split(field, "\\")
	}
	if vr.charsetDecoded {
		if strs, err = decodeStrings(coding, strs); err != nil {
			return nil, err
		}
	}
	for i, s := range strs {
		if vr.keepsLeadingSpace() {
			strs[i] = strings.TrimRightFunc(s, unicode.IsSpace)
		} else {
			strs[i] = strings.TrimFunc(s, unicode.IsSpace)
		}
	}
	return strs, nil
}

func readUID(dr *dcmReader, length uint32) ([]string, error) {
	field, err := dr.String(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading uid field value: %v", err)
	}
	strs := strings.Split(field, "\\")
	for i, s := range strs {
		strs[i] = strings.TrimFunc(s, func(r rune) bool {
			return r == 0x00 || r == ' '
		})
	}
	return strs, nil
}

func readNumberBinary(dr *dcmReader, length uint32, vr *VR, order binary.ByteOrder) (interface{}, error) {
	var data interface{}
	var size uint32

	switch vr {
	case SSVR:
		data, size = make([]int16, length/2), 2
	case USVR:
		data, size = make([]uint16, length/2), 2
	case SLVR:
		data, size = make([]int32, length/4), 4
	case ULVR:
		data, size = make([]uint32, length/4), 4
	case FLVR:
		data, size = make([]float32, length/4), 4
	case FDVR:
		data, size = make([]float64, length/8), 8
	default:
		return nil, fmt.Errorf("unknown vr: %v", vr)
	}
	if length%size != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of %d for vr %v", length, size, vr)
	}

	buf, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, err
	}
	if err := binary.Read(bytes.NewReader(buf), order, data); err != nil {
		return nil, fmt.Errorf("binary.Read(_, _, _) => %v", err)
	}
	return data, nil
}

func readTags(dr *dcmReader, length uint32, order binary.ByteOrder) ([]uint32, error) {
	if length%4 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 4 for vr AT", length)
	}
	ret := make([]uint32, length/4)
	for i := range ret {
		t, err := dr.Tag(order)
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		ret[i] = uint32(t)
	}
	return ret, nil
}

// readSequence reads the items of a sequence of explicit or undefined length
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
func readSequence(dr *dcmReader, length uint32, state *readState) (*Sequence, error) {
	order := state.syntax.byteOrder()
	if length != UndefinedLength {
		dr = dr.Limit(int64(length))
	}

	seq := &Sequence{}
	for {
		tag, err := dr.Tag(order)
		if err == io.EOF && length != UndefinedLength {
			return seq, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading item tag: %v", unexpectedEOF(err))
		}

		itemLength, err := dr.UInt32(order)
		if err != nil {
			return nil, fmt.Errorf("reading item length: %v", unexpectedEOF(err))
		}

		switch tag {
		case SequenceDelimitationItemTag:
			if length != UndefinedLength {
				return nil, fmt.Errorf("unexpected sequence delimitation item in explicit length sequence")
			}
			return seq, nil
		case ItemTag:
			item, err := readItem(dr, itemLength, state)
			if err != nil {
				return nil, err
			}
			seq.append(item)
		default:
			return nil, fmt.Errorf("invalid item tag in sequence, got %v want %v or %v",
				tag, ItemTag, SequenceDelimitationItemTag)
		}
	}
}

func readItem(dr *dcmReader, length uint32, state *readState) (*DataSet, error) {
	if length != UndefinedLength {
		dr = dr.Limit(int64(length))
	}
	item := &DataSet{Elements: map[DataElementTag]*DataElement{}}
	for {
		element, err := readDataElement(dr, state)
		if err == io.EOF {
			return item, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading item element: %v", err)
		}
		item.Elements[element.Tag] = element
	}
}
