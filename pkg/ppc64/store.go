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

package ppc64

import (
	"fmt"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// noVendor marks a model without a vendor.
const noVendor = -1

type vendor struct {
	name string
}

type model struct {
	name   string
	vendor int
	pvr    cpu.PVR
}

// cpuMap holds the vendors and models of one operation. Models refer to
// their vendor by index into vendors.
type cpuMap struct {
	vendors  []vendor
	models   []model
	byVendor map[string]int
	byModel  map[string]int
}

func newCPUMap() *cpuMap {
	return &cpuMap{
		byVendor: make(map[string]int),
		byModel:  make(map[string]int),
	}
}

func (m *cpuMap) insertVendor(name string) error {
	if name == "" {
		return cpuerrors.New(cpuerrors.ErrCodeMissingName, "Missing CPU vendor name")
	}
	if _, ok := m.byVendor[name]; ok {
		return cpuerrors.Newf(cpuerrors.ErrCodeDuplicateName, "CPU vendor %s already defined", name)
	}

	m.byVendor[name] = len(m.vendors)
	m.vendors = append(m.vendors, vendor{name: name})
	return nil
}

// insertModel adds a model. A nil vendorName means the model has no vendor;
// a nil pvr means the identifier is missing. pvr is hexadecimal text.
func (m *cpuMap) insertModel(name string, vendorName, pvr *string) error {
	if name == "" {
		return cpuerrors.New(cpuerrors.ErrCodeMissingName, "Missing CPU model name")
	}
	if _, ok := m.byModel[name]; ok {
		return cpuerrors.Newf(cpuerrors.ErrCodeDuplicateName, "CPU model %s already defined", name)
	}

	vi := noVendor
	if vendorName != nil {
		if *vendorName == "" {
			return cpuerrors.Newf(cpuerrors.ErrCodeMissingName, "Invalid vendor element in CPU model %s", name)
		}
		idx, ok := m.byVendor[*vendorName]
		if !ok {
			return cpuerrors.Newf(cpuerrors.ErrCodeUnknownVendor,
				"Unknown vendor %s referenced by CPU model %s", *vendorName, name)
		}
		vi = idx
	}

	if pvr == nil {
		return cpuerrors.Newf(cpuerrors.ErrCodeInvalidIdentifier, "Missing or invalid PVR value in CPU model %s", name)
	}
	value, err := cpu.ParsePVR(*pvr)
	if err != nil {
		return cpuerrors.Wrap(cpuerrors.ErrCodeInvalidIdentifier,
			fmt.Sprintf("Missing or invalid PVR value in CPU model %s", name), err)
	}

	m.byModel[name] = len(m.models)
	m.models = append(m.models, model{name: name, vendor: vi, pvr: value})
	return nil
}

func (m *cpuMap) findVendor(name string) (*vendor, bool) {
	idx, ok := m.byVendor[name]
	if !ok {
		return nil, false
	}
	return &m.vendors[idx], true
}

func (m *cpuMap) findModel(name string) (*model, bool) {
	idx, ok := m.byModel[name]
	if !ok {
		return nil, false
	}
	return &m.models[idx], true
}

// vendorName returns the name of mod's vendor, or "" when it has none.
func (m *cpuMap) vendorName(mod *model) string {
	if mod.vendor == noVendor {
		return ""
	}
	return m.vendors[mod.vendor].name
}
