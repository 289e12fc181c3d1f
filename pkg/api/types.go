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

package api

import "github.com/NVIDIA/cpumap/pkg/cpu"

// CompareRequest is the body of POST /v1/compare.
type CompareRequest struct {
	Host             *cpu.Definition `json:"host"`
	CPU              *cpu.Definition `json:"cpu"`
	FailIncompatible bool            `json:"failIncompatible,omitempty"`
}

// ComputeRequest is the body of POST /v1/compute.
type ComputeRequest struct {
	Host     *cpu.Definition `json:"host"`
	CPU      *cpu.Definition `json:"cpu"`
	WantData bool            `json:"wantData,omitempty"`
}

// DecodeRequest is the body of POST /v1/decode. CPU is an optional
// template; only its model and vendor are overwritten.
type DecodeRequest struct {
	Data           *cpu.Data       `json:"data"`
	CPU            *cpu.Definition `json:"cpu,omitempty"`
	ExpandFeatures bool            `json:"expandFeatures,omitempty"`
}

// BaselineRequest is the body of POST /v1/baseline.
type BaselineRequest struct {
	CPUs           []*cpu.Definition `json:"cpus"`
	ExpandFeatures bool              `json:"expandFeatures,omitempty"`
	Migratable     bool              `json:"migratable,omitempty"`
}

// UpdateRequest is the body of POST /v1/update.
type UpdateRequest struct {
	Guest *cpu.Definition `json:"guest"`
	Host  *cpu.Definition `json:"host"`
}

func flagsOf(expandFeatures, migratable bool) cpu.Flags {
	var f cpu.Flags
	if expandFeatures {
		f |= cpu.FlagExpandFeatures
	}
	if migratable {
		f |= cpu.FlagMigratable
	}
	return f
}
