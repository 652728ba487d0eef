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
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AttributeValue lists the Go types a Data Element value can be bound to
type AttributeValue interface {
	uint16 | int16 | uint32 | int32 | int64 | float32 | float64 | string
}

// Attribute is a typed view of the Data Element identified by Tag. The values are converted from
// whatever representation the parser produced: binary numbers, text (IS, DS, CS, ...) or raw
// bytes read as UN, which are decoded with the VR of the attribute.
//
// Attributes of repeating groups such as (50xx,0005) are declared with xx set to 0 and match the
// element in any group of the range.
type Attribute[T AttributeValue] struct {
	Tag DataElementTag
	VR  *VR

	// Order is the byte order used to decode raw bytes. Defaults to little endian.
	Order binary.ByteOrder

	values []T
}

// NewAttribute returns an attribute binding tag to values of type T. A nil vr uses the
// dictionary VR of the tag.
func NewAttribute[T AttributeValue](tag DataElementTag, vr *VR) *Attribute[T] {
	if vr == nil {
		vr = tag.DictionaryVR()
	}
	return &Attribute[T]{Tag: tag, VR: vr, Order: binary.LittleEndian}
}

// Matches reports whether the attribute binds Data Elements with the given tag
func (a *Attribute[T]) Matches(tag DataElementTag) bool {
	return dictionaryKey(tag) == dictionaryKey(a.Tag)
}

// SetFromDataElement replaces the values of the attribute with the value of e. An element without
// value leaves the attribute empty.
func (a *Attribute[T]) SetFromDataElement(e *DataElement) error {
	if !a.Matches(e.Tag) {
		return fmt.Errorf("%v bound to %v: %w", e.Tag, a.Tag, ErrTagMismatch)
	}
	values, err := a.convert(e.ValueField)
	if err != nil {
		return fmt.Errorf("%v as %v: %v: %w", e.Tag, a.VR, err, ErrInvalidValue)
	}
	a.values = values
	return nil
}

// GetValue returns the first value, or the zero value when the attribute is empty
func (a *Attribute[T]) GetValue() T {
	var zero T
	if len(a.values) == 0 {
		return zero
	}
	return a.values[0]
}

// GetValues returns all the values of the attribute
func (a *Attribute[T]) GetValues() []T {
	return a.values
}

// Len returns the value multiplicity
func (a *Attribute[T]) Len() int {
	return len(a.values)
}

func (a *Attribute[T]) convert(field interface{}) ([]T, error) {
	switch v := field.(type) {
	case nil:
		return nil, nil
	case []string:
		return mapValues(v, parseText[T])
	case []uint16:
		return mapValues(v, func(x uint16) (T, error) { return fromInt[T](int64(x)) })
	case []int16:
		return mapValues(v, func(x int16) (T, error) { return fromInt[T](int64(x)) })
	case []uint32:
		return mapValues(v, func(x uint32) (T, error) { return fromInt[T](int64(x)) })
	case []int32:
		return mapValues(v, func(x int32) (T, error) { return fromInt[T](int64(x)) })
	case []float32:
		return mapValues(v, func(x float32) (T, error) { return fromFloat[T](float64(x)) })
	case []float64:
		return mapValues(v, fromFloat[T])
	case []byte:
		decoded, err := a.decodeBytes(v)
		if err != nil {
			return nil, err
		}
		return a.convert(decoded)
	}
	return nil, fmt.Errorf("cannot bind value of type %T", field)
}

// decodeBytes interprets a value read as UN using the VR of the attribute
func (a *Attribute[T]) decodeBytes(b []byte) (interface{}, error) {
	if len(b) == 0 {
		return nil, nil
	}
	order := a.Order
	if order == nil {
		order = binary.LittleEndian
	}
	dr := newDcmReader(bytes.NewReader(b))
	switch a.VR.kind {
	case numberBinaryVR:
		return readNumberBinary(dr, uint32(len(b)), a.VR, order)
	case textVR:
		return readText(dr, uint32(len(b)), a.VR, defaultCharacterRepertoire)
	case uniqueIdentifierVR:
		return readUID(dr, uint32(len(b)))
	}
	return nil, fmt.Errorf("raw bytes cannot be bound with vr %v", a.VR)
}

func mapValues[S any, T any](in []S, f func(S) (T, error)) ([]T, error) {
	out := make([]T, len(in))
	for i, v := range in {
		t, err := f(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %v", i, err)
		}
		out[i] = t
	}
	return out, nil
}

func parseText[T AttributeValue](s string) (T, error) {
	var zero T
	s = strings.TrimSpace(s)
	switch any(zero).(type) {
	case string:
		return any(s).(T), nil
	case float32, float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zero, err
		}
		return fromFloat[T](f)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return zero, err
	}
	return fromInt[T](n)
}

func fromInt[T AttributeValue](x int64) (T, error) {
	var zero T
	var v interface{}
	switch any(zero).(type) {
	case uint16:
		if x < 0 || x > math.MaxUint16 {
			return zero, fmt.Errorf("%d overflows uint16", x)
		}
		v = uint16(x)
	case int16:
		if x < math.MinInt16 || x > math.MaxInt16 {
			return zero, fmt.Errorf("%d overflows int16", x)
		}
		v = int16(x)
	case uint32:
		if x < 0 || x > math.MaxUint32 {
			return zero, fmt.Errorf("%d overflows uint32", x)
		}
		v = uint32(x)
	case int32:
		if x < math.MinInt32 || x > math.MaxInt32 {
			return zero, fmt.Errorf("%d overflows int32", x)
		}
		v = int32(x)
	case int64:
		v = x
	case float32:
		v = float32(x)
	case float64:
		v = float64(x)
	case string:
		v = strconv.FormatInt(x, 10)
	}
	return v.(T), nil
}

func fromFloat[T AttributeValue](f float64) (T, error) {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32(f)).(T), nil
	case float64:
		return any(f).(T), nil
	case string:
		return any(strconv.FormatFloat(f, 'g', -1, 64)).(T), nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return zero, fmt.Errorf("%v is not an integer", f)
	}
	return fromInt[T](int64(f))
}
