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

// Package cli implements cpuctl, the command-line interface to the ppc64
// CPU model database.
//
// # Commands
//
//	cpuctl models [--count]
//	cpuctl compare --host host.yaml --cpu cpu.yaml [--fail-incompatible]
//	cpuctl compute --host host.yaml --cpu cpu.yaml [--guest-data]
//	cpuctl decode --pvr 0x004e1202 [--arch ppc64le] [--cpu template.yaml]
//	cpuctl baseline host-a.yaml host-b.yaml
//	cpuctl baseline --nodes '*'
//	cpuctl update --guest guest.yaml --host host.yaml
//	cpuctl host [--label-node] [--node-name NAME]
//	cpuctl host --deploy-agent --node NAME [--namespace NS] [--cleanup-rbac]
//
// CPU definitions are YAML or JSON files (chosen by extension) or
// cm://namespace/name ConfigMaps written by --output. A file may hold a
// bare definition:
//
//	type: host
//	arch: ppc64le
//	model: POWER9
//	vendor: IBM
//
// or any cpuctl report with a cpu field, so the output of decode, baseline,
// update and host feeds other commands directly.
//
// # Global Flags
//
//	--cpu-map      CPU map: embedded (default), a file or cm://namespace/name[/key]
//	--kubeconfig   kubeconfig for cm:// locations and node access
//	--log-level    debug, info, warn, error (default: info)
//	--output, -o   file path or cm://namespace/name (default: stdout)
//	--format, -t   yaml, json, table (default: yaml)
//
// # Environment Variables
//
//	CPUMAP_SOURCE          default for --cpu-map
//	CPUMAP_ALLOWED_MODELS  default for --allowed-models
//	KUBECONFIG             default for --kubeconfig
//	LOG_LEVEL              default for --log-level
//	NODE_NAME              node labeled by host --label-node
//	CPUMAP_IMAGE           agent image for host --deploy-agent
//
// An incompatible comparison is a successful run; its report carries the
// result. Errors exit with status 1.
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/cpumap/pkg/cli.version=1.0.0'"
package cli
