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
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// Flags modify Decode and Baseline. Architectures without feature tracking
// accept them without effect.
type Flags uint

const (
	// FlagExpandFeatures asks for the full feature list of the resulting model.
	FlagExpandFeatures Flags = 1 << iota
	// FlagMigratable drops features that block migration.
	FlagMigratable
)

// CheckFlags rejects any bit in flags that is not in allowed.
func CheckFlags(flags, allowed Flags) error {
	if extra := flags &^ allowed; extra != 0 {
		return cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "unsupported flags (0x%x)", uint(extra))
	}
	return nil
}
