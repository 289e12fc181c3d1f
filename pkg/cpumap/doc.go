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

// Package cpumap supplies CPU map records to architecture drivers.
//
// A CPU map is a YAML document listing, per architecture family, an ordered
// sequence of vendor, model and feature records:
//
//	apiVersion: cpumap.nvidia.com/v1alpha1
//	kind: CPUMap
//	arches:
//	  - name: ppc64
//	    records:
//	      - vendor:
//	          name: IBM
//	      - model:
//	          name: POWER9
//	          vendor:
//	            name: IBM
//	          pvr:
//	            value: "0x004e0000"
//
// A Source hands the records of one architecture to a Callback in document
// order. Sources never validate record contents; that is the driver's job.
//
// Available sources:
//
//   - Embedded: the map compiled into the binary
//   - File: a YAML file read on every load
//   - ConfigMap: a key of a Kubernetes ConfigMap (cm://namespace/name[/key])
//   - Bytes: an in-memory document
//
// ParseURI picks one of them from a location string.
package cpumap
