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
	"bufio"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

const defaultProcRoot = "/proc"

// NodeData reads the PVR of the running host from cpuinfo. POWER kernels
// report it on the revision line of every processor, e.g.
//
//	revision	: 2.1 (pvr 004e 1201)
func (d *Driver) NodeData(ctx context.Context) (*cpu.Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, cpuerrors.Wrap(cpuerrors.ErrCodeTimeout, "node data read cancelled", err)
	}

	path := filepath.Join(d.procRoot, "cpuinfo")
	pvr, err := readPVR(path)
	observeErr("node_data", err)
	if err != nil {
		return nil, err
	}

	arch, err := cpu.ParseArch(runtime.GOARCH)
	if err != nil || !cpu.Supports(d, arch) {
		arch = cpu.ArchNone
	}
	return &cpu.Data{Arch: arch, PVR: pvr}, nil
}

func readPVR(path string) (cpu.PVR, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, cpuerrors.WrapWithContext(cpuerrors.ErrCodeNotFound,
			"failed to open cpuinfo", err, map[string]any{"path": path})
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(key) != "revision" {
			continue
		}
		if pvr, found, err := parseRevision(value); found {
			return pvr, err
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, cpuerrors.WrapWithContext(cpuerrors.ErrCodeInternal,
			"failed to read cpuinfo", err, map[string]any{"path": path})
	}

	return 0, cpuerrors.NewWithContext(cpuerrors.ErrCodeNotFound,
		"no PVR found in cpuinfo", map[string]any{"path": path})
}

// parseRevision extracts the PVR from a revision value such as
// "2.1 (pvr 004e 1201)". found is false when the value carries no PVR.
func parseRevision(value string) (pvr cpu.PVR, found bool, err error) {
	_, rest, ok := strings.Cut(value, "(pvr")
	if !ok {
		return 0, false, nil
	}
	rest, _, _ = strings.Cut(rest, ")")

	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return 0, true, cpuerrors.Newf(cpuerrors.ErrCodeInvalidIdentifier,
			"malformed PVR in cpuinfo revision %q", strings.TrimSpace(value))
	}

	pvr, err = cpu.ParsePVR(fields[0] + fields[1])
	return pvr, true, err
}
