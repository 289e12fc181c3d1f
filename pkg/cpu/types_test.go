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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

func TestParseArch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Arch
		wantErr bool
	}{
		{"empty", "", ArchNone, false},
		{"none", "none", ArchNone, false},
		{"ppc64", "ppc64", ArchPPC64, false},
		{"ppc64le uppercase", "PPC64LE", ArchPPC64LE, false},
		{"amd64 alias", "amd64", ArchX86_64, false},
		{"arm64 alias", "arm64", ArchAArch64, false},
		{"s390x", "s390x", ArchS390X, false},
		{"invalid", "sparc", ArchNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArch(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseArch() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseArch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePVR(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    PVR
		wantErr bool
	}{
		{"prefixed", "0x004d0100", 0x004d0100, false},
		{"uppercase prefix", "0X004E0000", 0x004e0000, false},
		{"bare hex", "3f0200", 0x003f0200, false},
		{"padded", "  0x004b0000 ", 0x004b0000, false},
		{"empty", "", 0, true},
		{"prefix only", "0x", 0, true},
		{"not hex", "0xPOWER", 0, true},
		{"too wide", "0x1004d0100", 0, true},
		{"negative", "-1", 0, true},
		{"double prefix", "0x0X4d", 0, true},
		{"repeated prefix", "0x0x4d", 0, true},
		{"zero only", "0", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePVR(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeInvalidIdentifier))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPVRParts(t *testing.T) {
	p := PVR(0x004d01ff)
	assert.Equal(t, PVR(0x004d0000), p.Generation())
	assert.Equal(t, uint16(0x01ff), p.Revision())
	assert.Equal(t, "0x004d01ff", p.String())
}

func TestDataRoundTrip(t *testing.T) {
	in := Data{Arch: ArchPPC64LE, PVR: 0x004e1202}

	js, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"arch":"ppc64le","pvr":"0x004e1202"}`, string(js))

	var fromYAML Data
	require.NoError(t, yaml.Unmarshal([]byte("arch: ppc64\npvr: \"0x004d0200\"\n"), &fromYAML))
	assert.Equal(t, Data{Arch: ArchPPC64, PVR: 0x004d0200}, fromYAML)
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     *Definition
		wantErr bool
	}{
		{"nil", nil, true},
		{"empty", &Definition{}, false},
		{"full", &Definition{Type: TypeGuest, Mode: ModeHostModel, Match: MatchStrict, Arch: ArchPPC64, Model: "POWER9"}, false},
		{"bad arch", &Definition{Arch: "mips"}, true},
		{"bad type", &Definition{Type: "vm"}, true},
		{"bad mode", &Definition{Mode: "maximum"}, true},
		{"bad match", &Definition{Match: "loose"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestComparisonJSON(t *testing.T) {
	c := Failed(cpuerrors.New(cpuerrors.ErrCodeUnknownModel, "Unknown CPU model POWER42"))
	js, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"error","message":"[UNKNOWN_MODEL] Unknown CPU model POWER42","code":"UNKNOWN_MODEL"}`, string(js))

	ok := Identical(&Data{Arch: ArchPPC64, PVR: 0x004d0000})
	js, err = json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"identical","data":{"arch":"ppc64","pvr":"0x004d0000"}}`, string(js))
	assert.True(t, ok.IsIdentical())
}

func TestCheckFlags(t *testing.T) {
	assert.NoError(t, CheckFlags(0, FlagExpandFeatures))
	assert.NoError(t, CheckFlags(FlagExpandFeatures, FlagExpandFeatures|FlagMigratable))
	err := CheckFlags(FlagMigratable, FlagExpandFeatures)
	require.Error(t, err)
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeInvalidRequest))
}
