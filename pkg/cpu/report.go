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
	"github.com/NVIDIA/cpumap/pkg/header"
)

// APIVersion is the schema version of the documents in this file.
const APIVersion = "cpumap.nvidia.com/v1alpha1"

// ModelList lists the models a driver knows.
type ModelList struct {
	header.Header `json:",inline" yaml:",inline"`

	Driver string   `json:"driver" yaml:"driver"`
	Count  int      `json:"count" yaml:"count"`
	Models []string `json:"models,omitempty" yaml:"models,omitempty"`
}

// ComparisonReport wraps a Comparison.
type ComparisonReport struct {
	header.Header `json:",inline" yaml:",inline"`

	Comparison Comparison `json:"comparison" yaml:"comparison"`
}

// DefinitionReport wraps a CPU definition produced by decode, update or
// baseline.
type DefinitionReport struct {
	header.Header `json:",inline" yaml:",inline"`

	CPU *Definition `json:"cpu" yaml:"cpu"`
}

// HostReport describes the running host.
type HostReport struct {
	header.Header `json:",inline" yaml:",inline"`

	Data *Data       `json:"data" yaml:"data"`
	CPU  *Definition `json:"cpu,omitempty" yaml:"cpu,omitempty"`
}

// NewModelList returns a ModelList stamped with version.
func NewModelList(driver string, models []string, version string) *ModelList {
	l := &ModelList{Driver: driver, Count: len(models), Models: models}
	l.Init(header.KindModelList, APIVersion, version)
	return l
}

// NewComparisonReport returns a ComparisonReport stamped with version.
func NewComparisonReport(c Comparison, version string) *ComparisonReport {
	r := &ComparisonReport{Comparison: c}
	r.Init(header.KindComparison, APIVersion, version)
	return r
}

// NewDefinitionReport returns a report of kind for def.
func NewDefinitionReport(kind header.Kind, def *Definition, version string) *DefinitionReport {
	r := &DefinitionReport{CPU: def}
	r.Init(kind, APIVersion, version)
	return r
}

// NewHostReport returns a HostReport stamped with version.
func NewHostReport(data *Data, def *Definition, version string) *HostReport {
	r := &HostReport{Data: data, CPU: def}
	r.Init(header.KindHostData, APIVersion, version)
	return r
}
