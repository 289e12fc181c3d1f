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

package cpumap

import "context"

const (
	// APIVersion is the schema version of CPU map documents.
	APIVersion = "cpumap.nvidia.com/v1alpha1"
	// Kind is the kind of CPU map documents.
	Kind = "CPUMap"
)

// Element identifies the kind of a CPU map record.
type Element int

const (
	ElementVendor Element = iota
	ElementModel
	ElementFeature
)

// String returns the record kind name.
func (e Element) String() string {
	switch e {
	case ElementVendor:
		return "vendor"
	case ElementModel:
		return "model"
	case ElementFeature:
		return "feature"
	default:
		return "unknown"
	}
}

// Record is one entry of an architecture's CPU map. Exactly one of the
// pointers is set; Kind tells which.
type Record struct {
	Vendor  *VendorRecord  `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Model   *ModelRecord   `json:"model,omitempty" yaml:"model,omitempty"`
	Feature *FeatureRecord `json:"feature,omitempty" yaml:"feature,omitempty"`
}

// Kind returns the record kind and whether exactly one kind is set.
func (r *Record) Kind() (Element, bool) {
	n := 0
	kind := Element(-1)
	if r.Vendor != nil {
		n++
		kind = ElementVendor
	}
	if r.Model != nil {
		n++
		kind = ElementModel
	}
	if r.Feature != nil {
		n++
		kind = ElementFeature
	}
	return kind, n == 1
}

// VendorRecord declares a CPU vendor.
type VendorRecord struct {
	Name string `json:"name" yaml:"name"`
}

// ModelRecord declares a CPU model. Vendor and PVR are nested elements so
// that a present-but-empty element can be told apart from an absent one.
type ModelRecord struct {
	Name   string     `json:"name" yaml:"name"`
	Vendor *VendorRef `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	PVR    *PVRValue  `json:"pvr,omitempty" yaml:"pvr,omitempty"`
}

// VendorRef names the vendor of a model.
type VendorRef struct {
	Name string `json:"name" yaml:"name"`
}

// PVRValue holds a hexadecimal Processor Version Register value.
type PVRValue struct {
	Value string `json:"value" yaml:"value"`
}

// FeatureRecord declares a CPU feature. Drivers without feature tracking
// ignore it.
type FeatureRecord struct {
	Name string `json:"name" yaml:"name"`
}

// ArchMap groups the records of one architecture family.
type ArchMap struct {
	Name    string   `json:"name" yaml:"name"`
	Records []Record `json:"records" yaml:"records"`
}

// Document is a CPU map file.
type Document struct {
	APIVersion string    `json:"apiVersion" yaml:"apiVersion"`
	Kind       string    `json:"kind" yaml:"kind"`
	Arches     []ArchMap `json:"arches" yaml:"arches"`
}

// Callback receives the records of one architecture in source order.
// Returning an error aborts the load.
type Callback func(element Element, record *Record) error

// Source supplies CPU map records. Implementations are read-only and safe
// for concurrent use.
type Source interface {
	// Load invokes cb once per record of arch, in order.
	Load(ctx context.Context, arch string, cb Callback) error

	// String describes the source for logs.
	String() string
}
