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
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DataElement models a DICOM Data Element as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataElement struct {
	Tag DataElementTag

	// Value Representation
	VR *VR

	// ValueField represents the field within a Data Element that contains its value(s).
	// Can be any of of the following types:
	// []string,
	// []byte,
	// []int16,
	// []uint16,
	// []int32,
	// []uint32,
	// []float32,
	// []float64,
	// *Sequence,
	// *EncapsulatedPixelData
	//
	// A nil ValueField means the element is present but has no value.
	ValueField interface{}

	// ValueLength is equal to the length of the ValueField in bytes as read from the file.
	// Can be equal to 0xFFFFFFFF to represent an undefined length:
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
	ValueLength uint32
}

// IsEmpty is true when the element carries no value
func (e *DataElement) IsEmpty() bool {
	if e == nil || e.ValueField == nil {
		return true
	}
	switch v := e.ValueField.(type) {
	case []string:
		return len(v) == 0 || (len(v) == 1 && v[0] == "")
	case []byte:
		return len(v) == 0
	case []int16:
		return len(v) == 0
	case []uint16:
		return len(v) == 0
	case []int32:
		return len(v) == 0
	case []uint32:
		return len(v) == 0
	case []float32:
		return len(v) == 0
	case []float64:
		return len(v) == 0
	}
	return false
}

// StringValue returns the first value of a textual element
func (e *DataElement) StringValue() (string, error) {
	strs, ok := e.ValueField.([]string)
	if !ok {
		return "", fmt.Errorf("expected []string ValueField for %v, got %T", e.Tag, e.ValueField)
	}
	if len(strs) == 0 {
		return "", fmt.Errorf("no value for %v", e.Tag)
	}
	return strs[0], nil
}

// IntValue returns the first value of a numeric element, either binary (US, SS, UL, SL) or
// textual (IS)
func (e *DataElement) IntValue() (int64, error) {
	switch v := e.ValueField.(type) {
	case []uint16:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []int16:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []uint32:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []int32:
		if len(v) > 0 {
			return int64(v[0]), nil
		}
	case []string:
		if len(v) > 0 {
			n, err := strconv.ParseInt(strings.TrimSpace(v[0]), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parsing %v: %v", e.Tag, err)
			}
			return n, nil
		}
	default:
		return 0, fmt.Errorf("expected numeric ValueField for %v, got %T", e.Tag, e.ValueField)
	}
	return 0, fmt.Errorf("no value for %v", e.Tag)
}

func (e *DataElement) String() string {
	return e.string(0)
}

func (e *DataElement) string(indentLvl int) string {
	indent := strings.Repeat(">", indentLvl)
	switch v := e.ValueField.(type) {
	case *Sequence:
		return fmt.Sprintf("%s%v %v #%d %s", indent, e.Tag, e.VR, e.ValueLength, v.string(indentLvl))
	case []byte:
		return fmt.Sprintf("%s%v %v #%d (%d bytes)", indent, e.Tag, e.VR, e.ValueLength, len(v))
	case []string:
		return fmt.Sprintf("%s%v %v #%d [%s]", indent, e.Tag, e.VR, e.ValueLength, strings.Join(v, "\\"))
	default:
		return fmt.Sprintf("%s%v %v #%d %v", indent, e.Tag, e.VR, e.ValueLength, v)
	}
}

// DataSet models a DICOM Data Set as defined
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataSet struct {
	// Elements is a map of DataElement tags to *DataElement
	Elements map[DataElementTag]*DataElement
}

// NewDataSet returns a DataSet holding the given elements
func NewDataSet(elements ...*DataElement) *DataSet {
	ds := &DataSet{Elements: make(map[DataElementTag]*DataElement, len(elements))}
	for _, e := range elements {
		ds.Elements[e.Tag] = e
	}
	return ds
}

// SortedTags returns the tags of the DataSet in ascending order
func (ds *DataSet) SortedTags() []DataElementTag {
	tags := make([]DataElementTag, 0, len(ds.Elements))
	for tag := range ds.Elements {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// FindNextElement returns the first DataElement whose tag is at or after the given tag in
// (group, element) order. The boolean is false when no such element exists.
func (ds *DataSet) FindNextElement(tag DataElementTag) (*DataElement, bool) {
	var next *DataElement
	for t, e := range ds.Elements {
		if t >= tag && (next == nil || t < next.Tag) {
			next = e
		}
	}
	return next, next != nil
}

// Lookup returns the element with the given tag
func (ds *DataSet) Lookup(tag DataElementTag) (*DataElement, bool) {
	e, ok := ds.Elements[tag]
	return e, ok
}

// MetaElements returns a DataSet holding only the file meta elements of ds
func (ds *DataSet) MetaElements() *DataSet {
	meta := &DataSet{Elements: map[DataElementTag]*DataElement{}}
	for tag, e := range ds.Elements {
		if tag.IsMetaElement() {
			meta.Elements[tag] = e
		}
	}
	return meta
}

// TransferSyntaxUID returns the value of (0002,0010)
func (ds *DataSet) TransferSyntaxUID() (string, error) {
	e, ok := ds.Elements[TransferSyntaxUIDTag]
	if !ok {
		return "", fmt.Errorf("transfer syntax element is missing from data set")
	}
	return e.StringValue()
}

func (ds *DataSet) String() string {
	return ds.string(0)
}

func (ds *DataSet) string(indentLvl int) string {
	lines := make([]string, 0, len(ds.Elements))
	for _, tag := range ds.SortedTags() {
		lines = append(lines, ds.Elements[tag].string(indentLvl))
	}
	return strings.Join(lines, "\n")
}
