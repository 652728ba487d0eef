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

// Package dicom parses DICOM files and decodes the parts of them stored in special encodings:
// RLE Lossless pixel data and the retired curve module (50xx,eeee).
//
// Parse reads a file into a DataSet. DecodeFrames decodes the encapsulated pixel data of a data
// set with an ImageCodec such as RLECodec, and ReadCurves builds one CurveData per curve group.
// Typed access to single attributes goes through Attribute.
package dicom
