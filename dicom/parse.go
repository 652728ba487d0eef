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
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/zerodha/logf"
)

// Parse parses a DICOM file represented as an io.Reader, returning the DataSet defined by applying
// options sequentially in the order given to DataElements in the file.
//
// The file meta elements are part of the returned DataSet. The data set following the meta header
// is read in the transfer syntax declared by (0002,0010). The Deflated Explicit VR Little Endian
// syntax is inflated while reading.
func Parse(r io.Reader, opts ...ParseOption) (*DataSet, error) {
	p := newParser(opts)
	dr := newDcmReader(r)
	if err := readDicomSignature(dr); err != nil {
		return nil, err
	}

	ds := &DataSet{Elements: map[DataElementTag]*DataElement{}}
	if err := p.readMetaHeader(dr, ds); err != nil {
		return nil, fmt.Errorf("reading meta header: %v", err)
	}

	uid, err := ds.TransferSyntaxUID()
	if err != nil {
		return nil, err
	}
	syntax := lookupTransferSyntax(uid)
	p.lo.Debug("parsed file meta header", "transfer_syntax", uid, "elements", len(ds.Elements))

	if syntax.isDeflated() {
		inflater := flate.NewReader(dr.cr)
		defer inflater.Close()
		dr = newDcmReader(inflater)
	}
	if err := p.readElements(dr, newReadState(syntax), ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// ParseDataSet parses a data set without preamble or file meta header, encoded in the given
// transfer syntax.
func ParseDataSet(r io.Reader, transferSyntaxUID string, opts ...ParseOption) (*DataSet, error) {
	p := newParser(opts)
	syntax := lookupTransferSyntax(transferSyntaxUID)
	dr := newDcmReader(r)
	if syntax.isDeflated() {
		inflater := flate.NewReader(r)
		defer inflater.Close()
		dr = newDcmReader(inflater)
	}

	ds := &DataSet{Elements: map[DataElementTag]*DataElement{}}
	if err := p.readElements(dr, newReadState(syntax), ds); err != nil {
		return nil, err
	}
	return ds, nil
}

type parser struct {
	lo         logf.Logger
	transforms []Transform
}

func newParser(opts []ParseOption) *parser {
	p := &parser{lo: discardLogger()}
	for _, opt := range opts {
		if opt.configure != nil {
			opt.configure(p)
		}
		if opt.transform != nil {
			p.transforms = append(p.transforms, opt.transform)
		}
	}
	return p
}

func (p *parser) readElements(dr *dcmReader, state *readState, ds *DataSet) error {
	for {
		element, err := readDataElement(dr, state)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parsing element: %v", err)
		}
		if err := p.add(ds, element); err != nil {
			return err
		}
	}
}

func (p *parser) add(ds *DataSet, element *DataElement) error {
	var err error
	for i, t := range p.transforms {
		element, err = t(element)
		if err != nil {
			return fmt.Errorf("applying option %v: %v", i, err)
		}
		if element == nil { // option wants to filter this element out
			return nil
		}
	}
	ds.Elements[element.Tag] = element
	return nil
}

// readMetaHeader reads the File Meta Information which is always in explicit VR little endian
// and starts with its group length.
// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
func (p *parser) readMetaHeader(dr *dcmReader, ds *DataSet) error {
	state := newReadState(explicitVRLittleEndian)
	first, err := readDataElement(dr, state)
	if err != nil {
		return fmt.Errorf("reading FileMetaInformationGroupLength: %v", unexpectedEOF(err))
	}
	if first.Tag != FileMetaInformationGroupLengthTag {
		return fmt.Errorf("expected %v as first meta element, got %v", FileMetaInformationGroupLengthTag, first.Tag)
	}
	lengths, ok := first.ValueField.([]uint32)
	if !ok || len(lengths) != 1 {
		return fmt.Errorf("wrong value for FileMetaInformationGroupLength: got %v, want 1 uint32", first.ValueField)
	}
	if err := p.add(ds, first); err != nil {
		return err
	}

	start := dr.Tell()
	if err := p.readElements(dr.Limit(int64(lengths[0])), state, ds); err != nil {
		return err
	}
	if got := dr.Tell() - start; got != int64(lengths[0]) {
		return fmt.Errorf("meta header ended after %d bytes, group length is %d", got, lengths[0])
	}
	return nil
}

func readDicomSignature(dr *dcmReader) error {
	if err := dr.Skip(128); err != nil {
		return fmt.Errorf("skipping preamble: %v", err)
	}

	magic, err := dr.String(4)
	if err != nil {
		return fmt.Errorf("reading DICOM signature: %v", err)
	}
	if magic != "DICM" {
		return fmt.Errorf("wrong DICOM signature: %v", magic)
	}
	return nil
}
