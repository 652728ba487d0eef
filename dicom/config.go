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

	"github.com/zerodha/logf"
)

// Option configures the codecs and entity builders of this package.
type Option func(*options)

type options struct {
	lo          logf.Logger
	order       binary.ByteOrder
	reassembler FrameReassembler
}

func newOptions(opts []Option) options {
	o := options{
		lo:          discardLogger(),
		order:       binary.LittleEndian,
		reassembler: concatSegments{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func discardLogger() logf.Logger {
	return logf.New(logf.Opts{Writer: io.Discard, Level: logf.FatalLevel})
}

// WithLogger sets the logger receiving decode diagnostics and unsupported field notices.
// By default nothing is logged.
func WithLogger(lo logf.Logger) Option {
	return func(o *options) {
		o.lo = lo
	}
}

// WithByteOrder sets the byte order of binary values that are not described by a transfer
// syntax: the RLE header and raw curve data. The default is little endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *options) {
		o.order = order
	}
}

// WithReassembler sets how decoded RLE segments are combined into a frame. By default the
// segments are concatenated in segment order.
func WithReassembler(r FrameReassembler) Option {
	return func(o *options) {
		o.reassembler = r
	}
}
