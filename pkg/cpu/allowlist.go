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
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// AllowList is the set of CPU model names a hypervisor accepts.
// A nil or empty AllowList allows every model.
type AllowList struct {
	models sets.Set[string]
}

// NewAllowList returns an AllowList containing models. Empty names are dropped.
func NewAllowList(models ...string) *AllowList {
	s := sets.New[string]()
	for _, m := range models {
		if m != "" {
			s.Insert(m)
		}
	}
	return &AllowList{models: s}
}

// ParseAllowList parses a comma-separated list of model names.
// Returns nil when s holds no names.
func ParseAllowList(s string) *AllowList {
	var names []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			names = append(names, v)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return NewAllowList(names...)
}

// IsEmpty returns true if no restriction is configured.
func (a *AllowList) IsEmpty() bool {
	return a == nil || a.models.Len() == 0
}

// Allows reports whether model may be used. Matching is case-sensitive.
func (a *AllowList) Allows(model string) bool {
	if a.IsEmpty() {
		return true
	}
	return a.models.Has(model)
}

// Models returns the allowed names in sorted order.
func (a *AllowList) Models() []string {
	if a == nil {
		return nil
	}
	return sets.List(a.models)
}
