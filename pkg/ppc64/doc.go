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

// Package ppc64 implements the CPU driver for 64-bit POWER processors.
//
// POWER CPUs are identified by their Processor Version Register (PVR). The
// high 16 bits encode the processor generation and the low 16 bits the chip
// revision. Models in the CPU map declare a PVR; a PVR without an exact
// entry resolves to the model declaring its generation with a zero
// revision.
//
// POWER models carry no feature bits, so compatibility is decided on
// architecture, vendor and model name alone.
//
// Usage:
//
//	d := ppc64.New(ppc64.WithSource(cpumap.Embedded()))
//
//	def := &cpu.Definition{Type: cpu.TypeHost}
//	err := d.Decode(ctx, def, &cpu.Data{Arch: cpu.ArchPPC64LE, PVR: 0x004e1202}, nil, 0)
//	// def.Model == "POWER9", def.Vendor == "IBM"
//
//	c := d.Compute(ctx, host, guest, true)
//	if c.IsIdentical() {
//	    // c.Data holds the guest's PVR
//	}
//
// Each operation loads the CPU map from the configured source and discards
// it before returning. Invalid records are logged at debug level and
// skipped; a source that cannot be read fails the operation.
//
// Metrics (Prometheus):
//   - cpumap_map_loads_total{arch,status}
//   - cpumap_records_skipped_total{arch,element}
//   - cpumap_operations_total{arch,operation,result}
//   - cpumap_ppc64_pvr_generation_fallbacks_total
package ppc64
