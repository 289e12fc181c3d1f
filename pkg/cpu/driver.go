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
	"context"
	"slices"
)

// Driver is the set of CPU operations one architecture family provides.
// Callers pick a Driver explicitly for the architecture they handle.
type Driver interface {
	// Name returns the driver name, e.g. "ppc64".
	Name() string

	// Arches lists the architectures the driver handles.
	Arches() []Arch

	// Compare is a cheap check that does not consult the CPU map.
	Compare(host, cpu *Definition, failIncompatible bool) Comparison

	// Compute checks cpu against host using the CPU map and, when wantData
	// is set, returns the hardware data describing cpu.
	Compute(ctx context.Context, host, cpu *Definition, wantData bool) Comparison

	// GuestData is Compute with guest data requested.
	GuestData(ctx context.Context, host, guest *Definition) Comparison

	// Decode translates data into a model name (and vendor) stored in def.
	Decode(ctx context.Context, def *Definition, data *Data, allowed *AllowList, flags Flags) error

	// NodeData reads the hardware data of the running host.
	NodeData(ctx context.Context) (*Data, error)

	// Baseline computes a guest CPU runnable on every CPU in cpus.
	Baseline(ctx context.Context, cpus []*Definition, allowed *AllowList, flags Flags) (*Definition, error)

	// Update resolves host-model and host-passthrough guests against host.
	Update(guest, host *Definition) error

	// Models lists the names of all known models.
	Models(ctx context.Context) ([]string, error)

	// CountModels returns the number of known models.
	CountModels(ctx context.Context) (int, error)
}

// Supports reports whether d handles arch.
func Supports(d Driver, arch Arch) bool {
	return slices.Contains(d.Arches(), arch)
}
