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

import "errors"

// Errors reported while decoding RLE compressed frames. They are wrapped with details about the
// frame and segment; use errors.Is to test for them.
var (
	ErrMalformedHeader = errors.New("malformed rle header")
	ErrStreamDesync    = errors.New("stream position does not match segment offset")
	ErrTruncatedInput  = errors.New("truncated input")
	ErrSegmentOverrun  = errors.New("run exceeds segment length")
)

// ErrUnsupportedSyntax is returned when no codec can decode a transfer syntax
var ErrUnsupportedSyntax = errors.New("unsupported transfer syntax")

// Errors reported while binding Data Elements to typed values and entities.
var (
	ErrGroupMismatch  = errors.New("data element group does not match entity group")
	ErrUnknownElement = errors.New("element number is not defined for entity")
	ErrNotPublic      = errors.New("private data element")
	ErrTagMismatch    = errors.New("data element tag does not match attribute")
	ErrInvalidValue   = errors.New("invalid value for attribute")
)
