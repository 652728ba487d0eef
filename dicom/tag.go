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

import "fmt"

// DataElementTag is a unique identifier for a Data Element composed of an unordered pair
// of numbers called the group number and the element number as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
//
// The least significant 16 bits is the element number. The most significant 16 bits is the group
// number. Ordering tags as uint32 is the same as ordering by (group, element).
type DataElementTag uint32

// NewTag returns the DataElementTag for the given group and element numbers
func NewTag(group, element uint16) DataElementTag {
	return DataElementTag(uint32(group)<<16 | uint32(element))
}

// GroupNumber returns the group number component of the DataElementTag
func (t DataElementTag) GroupNumber() uint16 {
	return uint16(t >> 16)
}

// ElementNumber returns the element number component of the DataElementTag
func (t DataElementTag) ElementNumber() uint16 {
	return uint16(t & 0xFFFF)
}

// IsPrivate is true if and only if the group number is odd
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.8
func (t DataElementTag) IsPrivate() bool {
	return t.GroupNumber()%2 == 1
}

// IsPublic is true if and only if the tag is a standard (even group) tag
func (t DataElementTag) IsPublic() bool {
	return !t.IsPrivate()
}

// IsMetaElement is true if and only if the Data Element is a file meta element
func (t DataElementTag) IsMetaElement() bool {
	return t.GroupNumber() == 0x0002
}

// IsGroupLength is true for group length elements of the form (gggg,0000)
func (t DataElementTag) IsGroupLength() bool {
	return t.ElementNumber() == 0x0000
}

// WithGroup returns a copy of t with the group number replaced
func (t DataElementTag) WithGroup(group uint16) DataElementTag {
	return NewTag(group, t.ElementNumber())
}

func (t DataElementTag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.GroupNumber(), t.ElementNumber())
}

// Tags of the data dictionary that this package interprets. Repeating group tags such as the
// curve module (50xx,eeee) are declared with xx set to 0.
const (
	FileMetaInformationGroupLengthTag DataElementTag = 0x00020000
	FileMetaInformationVersionTag     DataElementTag = 0x00020001
	MediaStorageSOPClassUIDTag        DataElementTag = 0x00020002
	MediaStorageSOPInstanceUIDTag     DataElementTag = 0x00020003
	TransferSyntaxUIDTag              DataElementTag = 0x00020010
	ImplementationClassUIDTag         DataElementTag = 0x00020012
	ImplementationVersionNameTag      DataElementTag = 0x00020013

	SpecificCharacterSetTag DataElementTag = 0x00080005
	SOPClassUIDTag          DataElementTag = 0x00080016
	SOPInstanceUIDTag       DataElementTag = 0x00080018
	ModalityTag             DataElementTag = 0x00080060

	SamplesPerPixelTag           DataElementTag = 0x00280002
	PhotometricInterpretationTag DataElementTag = 0x00280004
	PlanarConfigurationTag       DataElementTag = 0x00280006
	NumberOfFramesTag            DataElementTag = 0x00280008
	RowsTag                      DataElementTag = 0x00280010
	ColumnsTag                   DataElementTag = 0x00280011
	BitsAllocatedTag             DataElementTag = 0x00280100
	BitsStoredTag                DataElementTag = 0x00280101
	HighBitTag                   DataElementTag = 0x00280102
	PixelRepresentationTag       DataElementTag = 0x00280103

	CurveDimensionsTag           DataElementTag = 0x50000005
	NumberOfPointsTag            DataElementTag = 0x50000010
	TypeOfDataTag                DataElementTag = 0x50000020
	CurveDescriptionTag          DataElementTag = 0x50000022
	AxisUnitsTag                 DataElementTag = 0x50000030
	AxisLabelsTag                DataElementTag = 0x50000040
	DataValueRepresentationTag   DataElementTag = 0x50000103
	MinimumCoordinateValueTag    DataElementTag = 0x50000104
	MaximumCoordinateValueTag    DataElementTag = 0x50000105
	CurveRangeTag                DataElementTag = 0x50000106
	CurveDataDescriptorTag       DataElementTag = 0x50000110
	CoordinateStartValueTag      DataElementTag = 0x50000112
	CoordinateStepValueTag       DataElementTag = 0x50000114
	CurveActivationLayerTag      DataElementTag = 0x50001001
	AudioTypeTag                 DataElementTag = 0x50002000
	AudioSampleFormatTag         DataElementTag = 0x50002002
	NumberOfChannelsTag          DataElementTag = 0x50002004
	NumberOfSamplesTag           DataElementTag = 0x50002006
	SampleRateTag                DataElementTag = 0x50002008
	TotalTimeTag                 DataElementTag = 0x5000200A
	AudioSampleDataTag           DataElementTag = 0x5000200C
	AudioCommentsTag             DataElementTag = 0x5000200E
	CurveLabelTag                DataElementTag = 0x50002500
	ReferencedOverlaySequenceTag DataElementTag = 0x50002600
	ReferencedOverlayGroupTag    DataElementTag = 0x50002610
	CurveDataTag                 DataElementTag = 0x50003000

	PixelDataTag DataElementTag = 0x7FE00010

	ItemTag                     DataElementTag = 0xFFFEE000
	ItemDelimitationItemTag     DataElementTag = 0xFFFEE00D
	SequenceDelimitationItemTag DataElementTag = 0xFFFEE0DD
)

// repeatingGroupMask strips the xx of a repeating group tag (50xx,eeee) or (60xx,eeee)
const repeatingGroupMask = 0xFF00FFFF

// isRepeatingGroup is true for the curve (50xx) and overlay (60xx) repeating groups. Odd groups
// in these ranges are private.
func isRepeatingGroup(group uint16) bool {
	if group%2 == 1 {
		return false
	}
	switch group & 0xFF00 {
	case 0x5000, 0x6000:
		return true
	}
	return false
}

// dictionaryKey returns the tag under which t is found in the data dictionary
func dictionaryKey(t DataElementTag) DataElementTag {
	if isRepeatingGroup(t.GroupNumber()) {
		return t & repeatingGroupMask
	}
	return t
}

// dictionary maps tags to the VR used when the transfer syntax does not encode the VR.
// Only the attributes this package interprets are listed; everything else is read as UN.
var dictionary = map[DataElementTag]*VR{
	FileMetaInformationVersionTag: OBVR,
	MediaStorageSOPClassUIDTag:    UIVR,
	MediaStorageSOPInstanceUIDTag: UIVR,
	TransferSyntaxUIDTag:          UIVR,
	ImplementationClassUIDTag:     UIVR,
	ImplementationVersionNameTag:  SHVR,

	SpecificCharacterSetTag: CSVR,
	SOPClassUIDTag:          UIVR,
	SOPInstanceUIDTag:       UIVR,
	ModalityTag:             CSVR,

	SamplesPerPixelTag:           USVR,
	PhotometricInterpretationTag: CSVR,
	PlanarConfigurationTag:       USVR,
	NumberOfFramesTag:            ISVR,
	RowsTag:                      USVR,
	ColumnsTag:                   USVR,
	BitsAllocatedTag:             USVR,
	BitsStoredTag:                USVR,
	HighBitTag:                   USVR,
	PixelRepresentationTag:       USVR,

	CurveDimensionsTag:           USVR,
	NumberOfPointsTag:            USVR,
	TypeOfDataTag:                CSVR,
	CurveDescriptionTag:          LOVR,
	AxisUnitsTag:                 SHVR,
	AxisLabelsTag:                SHVR,
	DataValueRepresentationTag:   USVR,
	CurveDataDescriptorTag:       USVR,
	CoordinateStartValueTag:      USVR,
	CoordinateStepValueTag:       USVR,
	CurveActivationLayerTag:      CSVR,
	AudioTypeTag:                 USVR,
	AudioSampleFormatTag:         USVR,
	NumberOfChannelsTag:          USVR,
	NumberOfSamplesTag:           ULVR,
	SampleRateTag:                ULVR,
	TotalTimeTag:                 ULVR,
	AudioSampleDataTag:           OWVR,
	AudioCommentsTag:             LTVR,
	CurveLabelTag:                LOVR,
	ReferencedOverlaySequenceTag: SQVR,
	ReferencedOverlayGroupTag:    USVR,
	CurveDataTag:                 OWVR,

	PixelDataTag: OWVR,
}

// DictionaryVR returns the VR of the tag from the data dictionary. Group length elements are
// always UL; tags missing from the dictionary are UN.
func (t DataElementTag) DictionaryVR() *VR {
	if t.IsGroupLength() {
		return ULVR
	}
	if vr, ok := dictionary[dictionaryKey(t)]; ok {
		return vr
	}
	return UNVR
}
