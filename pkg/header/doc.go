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

// Package header provides the common header of cpumap documents.
//
// Every document the CLI and API emit embeds a Header:
//
//	kind: CPUBaseline
//	apiVersion: cpumap.nvidia.com/v1alpha1
//	metadata:
//	  timestamp: "2025-12-30T10:30:00Z"
//	  version: v0.3.0
//
// Create one with options:
//
//	h := header.New(
//	    header.WithKind(header.KindComparison),
//	    header.WithAPIVersion("cpumap.nvidia.com/v1alpha1"),
//	    header.WithMetadata("source", "embedded"),
//	)
//
// or stamp an embedded header in place with Init, which records the
// creation time and tool version.
package header
