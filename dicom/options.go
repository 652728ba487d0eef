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

import "github.com/zerodha/logf"

// Transform describes a transformation applied to a DataElement
type Transform func(*DataElement) (*DataElement, error)

// ParseOption configures the behavior of the Parse function.
type ParseOption struct {
	transform Transform
	configure func(*parser)
}

// WithTransform returns a ParseOption that applies the given transformation to each top level
// DataElement in the order encountered. If the transform returns an error, Parse will stop
// parsing and return an error. If a nil DataElement is returned, this DataElement will be
// excluded from the DataSet returned from Parse.
func WithTransform(t Transform) ParseOption {
	return ParseOption{transform: t}
}

// WithParseLogger sets the logger receiving parse diagnostics
func WithParseLogger(lo logf.Logger) ParseOption {
	return ParseOption{configure: func(p *parser) {
		p.lo = lo
	}}
}

// DropGroupLengths will exclude all group length elements (gggg,0000) except the file meta
// group length from the returned DataSet
var DropGroupLengths = WithTransform(func(element *DataElement) (*DataElement, error) {
	if element.Tag.IsGroupLength() && !element.Tag.IsMetaElement() {
		return nil, nil
	}
	return element, nil
})

// DropPrivateElements will exclude all elements of odd groups from the returned DataSet
var DropPrivateElements = WithTransform(func(element *DataElement) (*DataElement, error) {
	if element.Tag.IsPrivate() {
		return nil, nil
	}
	return element, nil
})
