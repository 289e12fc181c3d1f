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

package header

import (
	"testing"
	"time"
)

func TestKindIsValid(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindModelList, true},
		{KindComparison, true},
		{KindDefinition, true},
		{KindBaseline, true},
		{KindHostData, true},
		{Kind("Snapshot"), false},
		{Kind(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	h := New(
		WithKind(KindBaseline),
		WithAPIVersion("cpumap.nvidia.com/v1alpha1"),
		WithMetadata(MetadataSource, "embedded"),
	)

	if h.GetKind() != KindBaseline {
		t.Errorf("kind = %q", h.GetKind())
	}
	if h.APIVersion != "cpumap.nvidia.com/v1alpha1" {
		t.Errorf("apiVersion = %q", h.APIVersion)
	}
	if h.GetMetadata()[MetadataSource] != "embedded" {
		t.Errorf("metadata = %v", h.GetMetadata())
	}
}

func TestWithMetadataNilMap(t *testing.T) {
	h := &Header{}
	WithMetadata("k", "v")(h)
	if h.Metadata["k"] != "v" {
		t.Errorf("metadata = %v", h.Metadata)
	}
}

func TestInit(t *testing.T) {
	var h Header
	h.Metadata = map[string]string{"stale": "x"}
	h.Init(KindComparison, "v1", "1.2.3")

	if _, ok := h.Metadata["stale"]; ok {
		t.Error("Init should replace metadata")
	}
	if h.Metadata[MetadataVersion] != "1.2.3" {
		t.Errorf("version = %q", h.Metadata[MetadataVersion])
	}
	if _, err := time.Parse(time.RFC3339, h.Metadata[MetadataTimestamp]); err != nil {
		t.Errorf("timestamp not RFC3339: %v", err)
	}

	h.Init(KindComparison, "v1", "")
	if _, ok := h.Metadata[MetadataVersion]; ok {
		t.Error("empty version should not be recorded")
	}
}
