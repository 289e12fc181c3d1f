// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cpu

import (
	"encoding/json"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// Result is the outcome of comparing a CPU against a host.
type Result string

const (
	ResultIdentical    Result = "identical"
	ResultIncompatible Result = "incompatible"
	ResultError        Result = "error"
)

// Comparison carries a Result together with its explanation.
//
// Message is set for incompatible outcomes when one was built, Data only for
// identical outcomes that asked for guest data, and Err only for ResultError.
type Comparison struct {
	Result  Result
	Message string
	Data    *Data
	Err     error
}

// Identical returns an identical Comparison with optional guest data.
func Identical(data *Data) Comparison {
	return Comparison{Result: ResultIdentical, Data: data}
}

// Incompatible returns an incompatible Comparison with an explanation.
func Incompatible(message string) Comparison {
	return Comparison{Result: ResultIncompatible, Message: message}
}

// Failed returns an error Comparison for err.
func Failed(err error) Comparison {
	c := Comparison{Result: ResultError, Err: err}
	if err != nil {
		c.Message = err.Error()
	}
	return c
}

// IsIdentical reports whether the comparison succeeded.
func (c Comparison) IsIdentical() bool {
	return c.Result == ResultIdentical
}

// comparisonJSON is the wire form of a Comparison.
type comparisonJSON struct {
	Result  Result              `json:"result" yaml:"result"`
	Message string              `json:"message,omitempty" yaml:"message,omitempty"`
	Code    cpuerrors.ErrorCode `json:"code,omitempty" yaml:"code,omitempty"`
	Data    *Data               `json:"data,omitempty" yaml:"data,omitempty"`
}

// View returns the serializable form of c.
func (c Comparison) View() any {
	return comparisonJSON{
		Result:  c.Result,
		Message: c.Message,
		Code:    cpuerrors.CodeOf(c.Err),
		Data:    c.Data,
	}
}

// MarshalJSON implements json.Marshaler.
func (c Comparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.View())
}

// MarshalYAML implements yaml.Marshaler.
func (c Comparison) MarshalYAML() (any, error) {
	return c.View(), nil
}
