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
	"fmt"
	"strconv"
	"strings"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// Arch identifies a CPU architecture. The zero value means "not specified".
type Arch string

const (
	ArchNone    Arch = ""
	ArchPPC64   Arch = "ppc64"
	ArchPPC64LE Arch = "ppc64le"
	ArchX86_64  Arch = "x86_64"
	ArchAArch64 Arch = "aarch64"
	ArchS390X   Arch = "s390x"
)

// String returns the architecture name, or "none" when unspecified.
func (a Arch) String() string {
	if a == ArchNone {
		return "none"
	}
	return string(a)
}

// IsValid reports whether a is a known architecture (ArchNone included).
func (a Arch) IsValid() bool {
	switch a {
	case ArchNone, ArchPPC64, ArchPPC64LE, ArchX86_64, ArchAArch64, ArchS390X:
		return true
	default:
		return false
	}
}

// ParseArch parses an architecture name. Kubernetes style aliases
// (amd64, arm64) are accepted. An empty string yields ArchNone.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ArchNone, nil
	case "ppc64":
		return ArchPPC64, nil
	case "ppc64le":
		return ArchPPC64LE, nil
	case "x86_64", "amd64":
		return ArchX86_64, nil
	case "aarch64", "arm64":
		return ArchAArch64, nil
	case "s390x":
		return ArchS390X, nil
	default:
		return ArchNone, cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "unknown architecture %q", s)
	}
}

// Mode describes how a guest CPU is derived from the host.
type Mode string

const (
	ModeCustom          Mode = "custom"
	ModeHostModel       Mode = "host-model"
	ModeHostPassthrough Mode = "host-passthrough"
)

// IsValid reports whether m is a recognized mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeCustom, ModeHostModel, ModeHostPassthrough:
		return true
	default:
		return false
	}
}

// Match is the policy used when matching a requested CPU against a host.
type Match string

const (
	MatchExact   Match = "exact"
	MatchStrict  Match = "strict"
	MatchMinimum Match = "minimum"
)

// IsValid reports whether m is a recognized match policy.
func (m Match) IsValid() bool {
	switch m {
	case MatchExact, MatchStrict, MatchMinimum:
		return true
	default:
		return false
	}
}

// Type tells whether a Definition describes a host or a guest CPU.
type Type string

const (
	TypeHost  Type = "host"
	TypeGuest Type = "guest"
)

// IsValid reports whether t is a recognized CPU type.
func (t Type) IsValid() bool {
	return t == TypeHost || t == TypeGuest
}

// Definition is a CPU description exchanged with callers.
// Empty Arch and Vendor mean "not specified".
type Definition struct {
	Type   Type   `json:"type,omitempty" yaml:"type,omitempty"`
	Mode   Mode   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Match  Match  `json:"match,omitempty" yaml:"match,omitempty"`
	Arch   Arch   `json:"arch,omitempty" yaml:"arch,omitempty"`
	Model  string `json:"model,omitempty" yaml:"model,omitempty"`
	Vendor string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

// Validate checks the enumerated fields of d. Empty values are accepted.
func (d *Definition) Validate() error {
	if d == nil {
		return cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "CPU definition is required")
	}
	if !d.Arch.IsValid() {
		return cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "unknown architecture %q", d.Arch)
	}
	if d.Type != "" && !d.Type.IsValid() {
		return cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "unknown CPU type %q", d.Type)
	}
	if d.Mode != "" && !d.Mode.IsValid() {
		return cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "unknown CPU mode %q", d.Mode)
	}
	if d.Match != "" && !d.Match.IsValid() {
		return cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "unknown CPU match %q", d.Match)
	}
	return nil
}

// PVR is the 32-bit PowerPC Processor Version Register value.
// The high 16 bits encode the processor generation, the low 16 bits the
// chip revision.
type PVR uint32

const pvrRevisionMask PVR = 0x0000FFFF

// Generation returns p with the revision bits cleared.
func (p PVR) Generation() PVR {
	return p &^ pvrRevisionMask
}

// Revision returns the low 16 bits of p.
func (p PVR) Revision() uint16 {
	return uint16(p & pvrRevisionMask)
}

// String formats p as 0x%08x.
func (p PVR) String() string {
	return fmt.Sprintf("0x%08x", uint32(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p PVR) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PVR) UnmarshalText(text []byte) error {
	v, err := ParsePVR(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePVR parses an unsigned hexadecimal value with an optional 0x prefix.
func ParsePVR(s string) (PVR, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) >= 2 && trimmed[0] == '0' && (trimmed[1] == 'x' || trimmed[1] == 'X') {
		trimmed = trimmed[2:]
	}
	if trimmed == "" {
		return 0, cpuerrors.Newf(cpuerrors.ErrCodeInvalidIdentifier, "empty PVR value %q", s)
	}
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, cpuerrors.Wrap(cpuerrors.ErrCodeInvalidIdentifier,
			fmt.Sprintf("invalid PVR value %q", s), err)
	}
	return PVR(v), nil
}

// Data is raw hardware data for one CPU.
type Data struct {
	Arch Arch `json:"arch" yaml:"arch"`
	PVR  PVR  `json:"pvr" yaml:"pvr"`
}
