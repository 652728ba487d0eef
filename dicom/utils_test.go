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

import "bytes"

var (
	nestedDataSetElement1 = &DataElement{SOPClassUIDTag, UIVR, []string{"1.2.840.10008.5.1.4.1.1.4"}, 26}
	nestedDataSetElement2 = &DataElement{SOPInstanceUIDTag, UIVR, []string{"1.2.840.10008.5.1.4.1.1.5"}, 26}
	nestedSeq             = createSingletonSequence(nestedDataSetElement1, nestedDataSetElement2)
)

func dcmReaderFromBytes(data []byte) *dcmReader {
	return newDcmReader(bytes.NewBuffer(data))
}

func createSingletonSequence(elements ...*DataElement) Sequence {
	return Sequence{Items: []*DataSet{NewDataSet(elements...)}}
}
