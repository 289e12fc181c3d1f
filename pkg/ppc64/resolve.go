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
	"log/slog"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

func (m *cpuMap) modelByName(name string) (*model, error) {
	mod, ok := m.findModel(name)
	if !ok {
		return nil, cpuerrors.Newf(cpuerrors.ErrCodeUnknownModel, "Unknown CPU model %s", name)
	}
	return mod, nil
}

// modelByPVR returns the model declaring pvr. When no model matches
// exactly, the revision bits are cleared and the generation is looked up
// instead.
func (m *cpuMap) modelByPVR(pvr cpu.PVR) (*model, error) {
	want := pvr
	for {
		for i := range m.models {
			if m.models[i].pvr == want {
				if want != pvr {
					pvrFallbacks.Inc()
					slog.Debug("resolved PVR by generation",
						"pvr", pvr.String(),
						"generation", want.String(),
						"model", m.models[i].name)
				}
				return &m.models[i], nil
			}
		}

		if want.Revision() == 0 {
			return nil, cpuerrors.NewWithContext(cpuerrors.ErrCodeNoModelForIdentifier,
				"no CPU model for PVR "+pvr.String(),
				map[string]any{"pvr": pvr.String()})
		}
		want = want.Generation()
	}
}
