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
	"context"
	"log/slog"

	"github.com/NVIDIA/cpumap/pkg/cpumap"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// insertRecord adds one CPU map record to m. Feature records are ignored.
func (m *cpuMap) insertRecord(element cpumap.Element, rec *cpumap.Record) error {
	switch element {
	case cpumap.ElementVendor:
		return m.insertVendor(rec.Vendor.Name)
	case cpumap.ElementModel:
		var vendorName, pvr *string
		if rec.Model.Vendor != nil {
			vendorName = &rec.Model.Vendor.Name
		}
		if rec.Model.PVR != nil {
			pvr = &rec.Model.PVR.Value
		}
		return m.insertModel(rec.Model.Name, vendorName, pvr)
	case cpumap.ElementFeature:
		return nil
	default:
		return cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "unexpected CPU map element %d", int(element))
	}
}

// loadMap builds a fresh cpuMap from src. Invalid records are logged and
// skipped; only a failure of the source itself fails the load.
func loadMap(ctx context.Context, src cpumap.Source) (*cpuMap, error) {
	m := newCPUMap()

	err := src.Load(ctx, driverName, func(element cpumap.Element, rec *cpumap.Record) error {
		if err := m.insertRecord(element, rec); err != nil {
			recordsSkipped.WithLabelValues(driverName, element.String()).Inc()
			slog.Debug("ignoring CPU map record",
				"source", src.String(),
				"element", element.String(),
				"error", err)
		}
		return nil
	})
	if err != nil {
		mapLoads.WithLabelValues(driverName, "error").Inc()
		return nil, cpuerrors.WrapWithContext(cpuerrors.CodeOf(err),
			"failed to load CPU map", err, map[string]any{"source": src.String()})
	}

	mapLoads.WithLabelValues(driverName, "ok").Inc()
	return m, nil
}
