// The MIT License
//
// Copyright (c) 2020 Temporal Technologies Inc.  All rights reserved.
//
// Copyright (c) 2020 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package converter serializes the map[string]interface{} payloads that flow between workflow and
// task input/output slots (§6: "external payload envelopes"). It keeps the metadata-tagged
// encoding convention and the sentinel-error-plus-%w wrapping idiom of a data converter, without
// any of the protobuf-specific machinery that domain doesn't need.
package converter

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors returned by PayloadConverter implementations.
var (
	ErrUnableToEncodeJSON = errors.New("unable to encode to JSON")
	ErrUnableToDecodeJSON = errors.New("unable to decode JSON")
)

// Payload is a self-describing, size-measurable encoding of a map payload.
type Payload struct {
	Metadata map[string]string
	Data     []byte
}

// Size returns the number of bytes that would be persisted or transmitted for p, used by the
// External Payload Gateway's oversized-payload threshold check (4.C).
func (p *Payload) Size() int { return len(p.Data) }

const metadataEncodingJSON = "json"

// PayloadConverter converts a single map payload to/from its wire Payload.
type PayloadConverter interface {
	ToPayload(value map[string]interface{}) (*Payload, error)
	FromPayload(payload *Payload, out *map[string]interface{}) error
}

type jsonPayloadConverter struct{}

// JSON is the default PayloadConverter: plain encoding/json, metadata-tagged "json".
var JSON PayloadConverter = &jsonPayloadConverter{}

func (c *jsonPayloadConverter) ToPayload(value map[string]interface{}) (*Payload, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToEncodeJSON, err)
	}
	return &Payload{
		Metadata: map[string]string{"encoding": metadataEncodingJSON},
		Data:     data,
	}, nil
}

func (c *jsonPayloadConverter) FromPayload(payload *Payload, out *map[string]interface{}) error {
	if payload == nil {
		*out = map[string]interface{}{}
		return nil
	}
	if err := json.Unmarshal(payload.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToDecodeJSON, err)
	}
	if *out == nil {
		*out = map[string]interface{}{}
	}
	return nil
}
