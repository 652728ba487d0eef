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
	"fmt"
	"strings"
)

// Curve groups occupy the repeating groups (50xx,eeee) with an even xx
// http://dicom.nema.org/medical/dicom/2004/04_03PU.PDF, section C.10.2
const (
	firstCurveGroup = 0x5000
	lastCurveGroup  = 0x50FF
)

// CurveData is the curve module of one curve group. It is built by feeding the Data Elements
// of the group to Update; the first element establishes the group.
//
// Type Of Data (50xx,0020) uses the defined terms TAC (time activity curve), PROF (image
// profile), HIST (histogram), ROI (polygraphic region of interest), TABL (table of values),
// FILT (filter kernel), POLY (poly line), ECG, PRESSURE, FLOW, PHYSIO and RESP.
type CurveData struct {
	Dimensions              uint16
	NumberOfPoints          uint16
	TypeOfData              string
	CurveDescription        string
	AxisUnits               []string
	DataValueRepresentation uint16
	CurveDataDescriptor     []uint16
	CoordinateStartValue    uint16
	CoordinateStepValue     uint16
	CurveLabel              string

	// Data is the raw Curve Data (50xx,3000)
	Data []byte

	group       uint16
	hasGroup    bool
	unsupported []DataElementTag
	opts        options
}

// NewCurveData returns an empty curve without a group
func NewCurveData(opts ...Option) *CurveData {
	return &CurveData{opts: newOptions(opts)}
}

// defaults makes a CurveData declared without NewCurveData usable
func (c *CurveData) defaults() {
	if c.opts.order == nil {
		c.opts = newOptions(nil)
	}
}

// Group returns the curve group, or 0 when no element has been added yet
func (c *CurveData) Group() uint16 {
	return c.group
}

// Unsupported returns the tags of elements that belong to the curve module but were dropped
// because no field holds them
func (c *CurveData) Unsupported() []DataElementTag {
	return c.unsupported
}

// IsEmpty is true when the curve holds no curve data
func (c *CurveData) IsEmpty() bool {
	return len(c.Data) == 0
}

// Update sets the field of the curve bound to e. The element must be a public element of the
// curve groups; once the group is established every element must belong to it. Elements without
// value leave the curve unchanged. A failed update does not modify the curve.
func (c *CurveData) Update(e *DataElement) error {
	if e == nil {
		return fmt.Errorf("nil curve element: %w", ErrInvalidValue)
	}
	c.defaults()
	tag := e.Tag
	if tag.IsPrivate() {
		return fmt.Errorf("curve element %v: %w", tag, ErrNotPublic)
	}
	group := tag.GroupNumber()
	if group < firstCurveGroup || group > lastCurveGroup {
		return fmt.Errorf("%v is outside the curve groups (50xx): %w", tag, ErrGroupMismatch)
	}
	field, ok := curveFields[tag.ElementNumber()]
	if !ok {
		return fmt.Errorf("curve element %v: %w", tag, ErrUnknownElement)
	}
	if e.IsEmpty() {
		return nil
	}
	if c.hasGroup && group != c.group {
		return fmt.Errorf("%v added to curve group %04X: %w", tag, c.group, ErrGroupMismatch)
	}

	if field.update == nil {
		c.opts.lo.Warn("unsupported curve element", "tag", tag.String(), "name", field.name)
		c.unsupported = append(c.unsupported, tag)
	} else if err := field.update(c, e); err != nil {
		return err
	}
	c.group, c.hasGroup = group, true
	return nil
}

// Values decodes Data according to DataValueRepresentation
func (c *CurveData) Values() ([]float64, error) {
	c.defaults()
	vr, ok := curveDataVRs[c.DataValueRepresentation]
	if !ok {
		return nil, fmt.Errorf("data value representation %d: %w", c.DataValueRepresentation, ErrInvalidValue)
	}
	if len(c.Data) == 0 {
		return nil, nil
	}
	values, err := readNumberBinary(newDcmReader(bytes.NewReader(c.Data)), uint32(len(c.Data)), vr, c.opts.order)
	if err != nil {
		return nil, fmt.Errorf("decoding curve data: %v: %w", err, ErrInvalidValue)
	}
	at := NewAttribute[float64](CurveDataTag, vr)
	floats, err := at.convert(values)
	if err != nil {
		return nil, err
	}
	return floats, nil
}

// Clone returns a deep copy of the curve
func (c *CurveData) Clone() *CurveData {
	clone := *c
	clone.AxisUnits = append([]string(nil), c.AxisUnits...)
	clone.CurveDataDescriptor = append([]uint16(nil), c.CurveDataDescriptor...)
	clone.Data = append([]byte(nil), c.Data...)
	clone.unsupported = append([]DataElementTag(nil), c.unsupported...)
	return &clone
}

func (c *CurveData) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Group                   0x%04X\n", c.group)
	fmt.Fprintf(&b, "Dimensions              : %d\n", c.Dimensions)
	fmt.Fprintf(&b, "NumberOfPoints          : %d\n", c.NumberOfPoints)
	fmt.Fprintf(&b, "TypeOfData              : %s\n", c.TypeOfData)
	fmt.Fprintf(&b, "CurveDescription        : %s\n", c.CurveDescription)
	fmt.Fprintf(&b, "AxisUnits               : %s\n", strings.Join(c.AxisUnits, "\\"))
	fmt.Fprintf(&b, "DataValueRepresentation : %d\n", c.DataValueRepresentation)
	fmt.Fprintf(&b, "CurveLabel              : %s\n", c.CurveLabel)
	fmt.Fprintf(&b, "Data                    : %d bytes", len(c.Data))
	return b.String()
}

// curveDataVRs maps Data Value Representation (50xx,0103) to the encoding of Curve Data
var curveDataVRs = map[uint16]*VR{
	0: USVR,
	1: SSVR,
	2: FLVR,
	3: FDVR,
	4: SLVR,
}

type curveField struct {
	name string

	// update is nil for elements of the module without a field
	update func(c *CurveData, e *DataElement) error
}

// curveFields holds every element number of the curve module
var curveFields = map[uint16]curveField{
	0x0000: {"CurveGroupLength", ignoreCurveElement},
	0x0005: {"CurveDimensions", bindCurve(CurveDimensionsTag, func(c *CurveData, v []uint16) {
		c.Dimensions = v[0]
	})},
	0x0010: {"NumberOfPoints", bindCurve(NumberOfPointsTag, func(c *CurveData, v []uint16) {
		c.NumberOfPoints = v[0]
	})},
	0x0020: {"TypeOfData", bindCurve(TypeOfDataTag, func(c *CurveData, v []string) {
		c.TypeOfData = v[0]
	})},
	0x0022: {"CurveDescription", bindCurve(CurveDescriptionTag, func(c *CurveData, v []string) {
		c.CurveDescription = v[0]
	})},
	0x0030: {"AxisUnits", bindCurve(AxisUnitsTag, func(c *CurveData, v []string) {
		c.AxisUnits = v
	})},
	0x0040: {"AxisLabels", nil},
	0x0103: {"DataValueRepresentation", bindCurve(DataValueRepresentationTag, func(c *CurveData, v []uint16) {
		c.DataValueRepresentation = v[0]
	})},
	0x0104: {"MinimumCoordinateValue", nil},
	0x0105: {"MaximumCoordinateValue", nil},
	0x0106: {"CurveRange", nil},
	0x0110: {"CurveDataDescriptor", bindCurve(CurveDataDescriptorTag, func(c *CurveData, v []uint16) {
		c.CurveDataDescriptor = v
	})},
	0x0112: {"CoordinateStartValue", bindCurve(CoordinateStartValueTag, func(c *CurveData, v []uint16) {
		c.CoordinateStartValue = v[0]
	})},
	0x0114: {"CoordinateStepValue", bindCurve(CoordinateStepValueTag, func(c *CurveData, v []uint16) {
		c.CoordinateStepValue = v[0]
	})},
	0x1001: {"CurveActivationLayer", nil},
	0x2000: {"AudioType", nil},
	0x2002: {"AudioSampleFormat", nil},
	0x2004: {"NumberOfChannels", nil},
	0x2006: {"NumberOfSamples", nil},
	0x2008: {"SampleRate", nil},
	0x200A: {"TotalTime", nil},
	0x200C: {"AudioSampleData", nil},
	0x200E: {"AudioComments", nil},
	0x2500: {"CurveLabel", bindCurve(CurveLabelTag, func(c *CurveData, v []string) {
		c.CurveLabel = v[0]
	})},
	0x2600: {"ReferencedOverlaySequence", nil},
	0x2610: {"ReferencedOverlayGroup", nil},
	0x3000: {"CurveData", setCurveData},
}

func ignoreCurveElement(*CurveData, *DataElement) error {
	return nil
}

// bindCurve returns an update converting the element with an Attribute of the dictionary VR
func bindCurve[T AttributeValue](tag DataElementTag, set func(c *CurveData, values []T)) func(*CurveData, *DataElement) error {
	return func(c *CurveData, e *DataElement) error {
		at := NewAttribute[T](tag, nil)
		at.Order = c.opts.order
		if err := at.SetFromDataElement(e); err != nil {
			return err
		}
		if at.Len() == 0 {
			return nil
		}
		set(c, at.GetValues())
		return nil
	}
}

func setCurveData(c *CurveData, e *DataElement) error {
	data, ok := e.ValueField.([]byte)
	if !ok {
		return fmt.Errorf("%v: expected raw bytes, got %T: %w", e.Tag, e.ValueField, ErrInvalidValue)
	}
	c.Data = append([]byte(nil), data...)
	return nil
}

// CurveGroups returns the public curve groups present in ds in ascending order
func CurveGroups(ds *DataSet) []uint16 {
	var groups []uint16
	candidate := uint32(firstCurveGroup)
	for candidate <= lastCurveGroup {
		e, ok := ds.FindNextElement(NewTag(uint16(candidate), 0x0000))
		if !ok || e.Tag.GroupNumber() > lastCurveGroup {
			break
		}
		group := uint32(e.Tag.GroupNumber())
		if e.Tag.IsPrivate() {
			// move on to the next public group
			candidate = group + 1
			continue
		}
		groups = append(groups, uint16(group))
		candidate = group + 2
	}
	return groups
}

// NumberOfCurves returns the number of public curve groups present in ds
func NumberOfCurves(ds *DataSet) uint {
	return uint(len(CurveGroups(ds)))
}

// ReadCurves builds one CurveData per curve group of ds
func ReadCurves(ds *DataSet, opts ...Option) ([]*CurveData, error) {
	groups := CurveGroups(ds)
	curves := make([]*CurveData, 0, len(groups))
	tags := ds.SortedTags()
	for _, group := range groups {
		curve := NewCurveData(opts...)
		for _, tag := range tags {
			if tag.GroupNumber() != group {
				continue
			}
			if err := curve.Update(ds.Elements[tag]); err != nil {
				return nil, fmt.Errorf("reading curve group %04X: %w", group, err)
			}
		}
		// a group holding only empty elements
		if !curve.hasGroup {
			curve.group, curve.hasGroup = group, true
		}
		curves = append(curves, curve)
	}
	return curves, nil
}
