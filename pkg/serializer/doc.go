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

// Package serializer reads and writes cpumap documents.
//
// Output formats:
//   - json: indented JSON
//   - yaml: YAML with two-space indentation
//   - table: FIELD/VALUE rows keyed by the JSON field path
//
// Writing:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	if c, ok := w.(serializer.Closer); ok {
//	    defer c.Close()
//	}
//	err := w.Serialize(ctx, report)
//
// An empty path writes to stdout; cm://namespace/name applies a ConfigMap
// holding the document under document.<ext>.
//
// Reading:
//
//	def, err := serializer.FromFile[cpu.Definition]("host.yaml")
//
// FromFile accepts local JSON or YAML files and cm:// URIs written by the
// ConfigMap writer.
//
// HTTP handlers use RespondJSON.
package serializer
