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
)

// vrKind groups VRs that share an encoding of the Value Field
type vrKind int

const (
	// textVR values are character strings padded with spaces and delimited by backslashes
	textVR vrKind = iota

	// numberBinaryVR values are fixed width binary numbers
	numberBinaryVR

	// bulkDataVR values are opaque byte sequences (OB, OW, UN, ...)
	bulkDataVR

	// uniqueIdentifierVR is for VR: UI. It has null padding
	uniqueIdentifierVR

	// sequenceVR is for VR: SQ
	sequenceVR

	// tagVR is for VR: AT
	tagVR
)

// UndefinedLength as specified
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
const UndefinedLength = 0xffffffff

// VR models the DICOM Value representations (VR)
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
type VR struct {
	// Name represents the 2-character VR Code
	Name string

	kind vrKind

	// longLength is true when the explicit VR syntaxes store the value length in 32 bits
	longLength bool

	// charsetDecoded is true for text VRs affected by the Specific Character Set
	charsetDecoded bool
}

func (vr *VR) String() string {
	if vr == nil {
		return "??"
	}
	return vr.Name
}

var vrLookupMap = map[string]*VR{}

func newVR(name string, kind vrKind) *VR {
	vr := &VR{Name: name, kind: kind}
	vrLookupMap[name] = vr
	return vr
}

func (vr *VR) withLongLength() *VR {
	vr.longLength = true
	return vr
}

func (vr *VR) withCharset() *VR {
	vr.charsetDecoded = true
	return vr
}

func lookupVRByName(name string) (*VR, error) {
	r, ok := vrLookupMap[name]
	if !ok {
		return nil, fmt.Errorf("unknown vr name: %q", name)
	}
	return r, nil
}

// VR list obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
var (
	// textual VRs
	CSVR = newVR("CS", textVR)
	SHVR = newVR("SH", textVR).withCharset()
	LOVR = newVR("LO", textVR).withCharset()
	STVR = newVR("ST", textVR).withCharset()
	LTVR = newVR("LT", textVR).withCharset()
	ASVR = newVR("AS", textVR)
	PNVR = newVR("PN", textVR).withCharset()
	AEVR = newVR("AE", textVR)
	DAVR = newVR("DA", textVR)
	TMVR = newVR("TM", textVR)
	DTVR = newVR("DT", textVR)

	// textual numbers
	ISVR = newVR("IS", textVR)
	DSVR = newVR("DS", textVR)

	// binary numbers
	SSVR = newVR("SS", numberBinaryVR)
	USVR = newVR("US", numberBinaryVR)
	SLVR = newVR("SL", numberBinaryVR)
	ULVR = newVR("UL", numberBinaryVR)
	FLVR = newVR("FL", numberBinaryVR)
	FDVR = newVR("FD", numberBinaryVR)

	// large binary sequences
	OBVR = newVR("OB", bulkDataVR).withLongLength()
	ODVR = newVR("OD", bulkDataVR).withLongLength()
	OLVR = newVR("OL", bulkDataVR).withLongLength()
	OWVR = newVR("OW", bulkDataVR).withLongLength()
	OFVR = newVR("OF", bulkDataVR).withLongLength()
	UNVR = newVR("UN", bulkDataVR).withLongLength()

	// unlimited text, stored as a single string
	UCVR = newVR("UC", textVR).withLongLength().withCharset()
	URVR = newVR("UR", textVR).withLongLength()
	UTVR = newVR("UT", textVR).withLongLength().withCharset()

	ATVR = newVR("AT", tagVR)
	UIVR = newVR("UI", uniqueIdentifierVR)
	SQVR = newVR("SQ", sequenceVR).withLongLength()
)

// keepsLeadingSpace is true for VRs whose leading spaces are significant
func (vr *VR) keepsLeadingSpace() bool {
	switch vr {
	case STVR, LTVR, UTVR, URVR:
		return true
	}
	return false
}

// singleValued is true for text VRs in which the backslash is not a value delimiter
func (vr *VR) singleValued() bool {
	switch vr {
	case STVR, LTVR, UTVR, URVR:
		return true
	}
	return false
}
