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

package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/header"
	"github.com/NVIDIA/cpumap/pkg/k8s/client"
	"github.com/NVIDIA/cpumap/pkg/k8s/node"
	"github.com/NVIDIA/cpumap/pkg/ppc64"
	"github.com/NVIDIA/cpumap/pkg/serializer"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes cpuctl with args and decodes the JSON output into v.
func run(t *testing.T, v any, args ...string) error {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.json")
	argv := append([]string{name, "--output", out, "--format", "json"}, args...)
	if err := newRootCmd().Run(context.Background(), argv); err != nil {
		return err
	}
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
	return nil
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    serializer.Format
		wantErr bool
	}{
		{"yaml", serializer.FormatYAML, false},
		{"json", serializer.FormatJSON, false},
		{"table", serializer.FormatTable, false},
		{"xml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cmd := &cli.Command{
				Flags: []cli.Flag{&cli.StringFlag{Name: "format", Value: tt.format}},
				Action: func(_ context.Context, c *cli.Command) error {
					got, err := parseOutputFormat(c)
					if tt.wantErr {
						assert.Error(t, err)
						return nil
					}
					assert.NoError(t, err)
					assert.Equal(t, tt.want, got)
					return nil
				},
			}
			require.NoError(t, cmd.Run(context.Background(), []string{"test"}))
		})
	}
}

func TestModelsCommand(t *testing.T) {
	var list cpu.ModelList
	require.NoError(t, run(t, &list, "models"))
	assert.Equal(t, header.KindModelList, list.Kind)
	assert.Equal(t, 10, list.Count)
	assert.Contains(t, list.Models, "POWER10")

	var counted cpu.ModelList
	require.NoError(t, run(t, &counted, "models", "--count"))
	assert.Equal(t, 10, counted.Count)
	assert.Empty(t, counted.Models)
}

func TestCustomCPUMap(t *testing.T) {
	dir := t.TempDir()
	mapPath := writeFile(t, dir, "map.yaml", `apiVersion: cpumap.nvidia.com/v1alpha1
kind: CPUMap
arches:
  - name: ppc64
    records:
      - vendor:
          name: IBM
      - model:
          name: POWER9
          vendor:
            name: IBM
          pvr:
            value: "0x004e0000"
`)

	var list cpu.ModelList
	require.NoError(t, run(t, &list, "--cpu-map", mapPath, "models"))
	assert.Equal(t, []string{"POWER9"}, list.Models)

	err := run(t, &list, "--cpu-map", filepath.Join(dir, "missing.yaml"), "models")
	assert.Error(t, err)
}

func TestCompareAndCompute(t *testing.T) {
	dir := t.TempDir()
	host := writeFile(t, dir, "host.yaml", "type: host\narch: ppc64le\nmodel: POWER9\nvendor: IBM\n")
	p8 := writeFile(t, dir, "p8.yaml", "type: guest\nmodel: POWER8\nmatch: exact\n")
	p9 := writeFile(t, dir, "p9.json", `{"type": "guest", "model": "POWER9"}`)
	unknown := writeFile(t, dir, "unknown.yaml", "model: POWER42\n")

	type report struct {
		Comparison struct {
			Result  string    `json:"result"`
			Message string    `json:"message"`
			Data    *cpu.Data `json:"data"`
		} `json:"comparison"`
	}

	var r report
	require.NoError(t, run(t, &r, "compare", "--host", host, "--cpu", p9))
	assert.Equal(t, "identical", r.Comparison.Result)

	r = report{}
	require.NoError(t, run(t, &r, "compare", "--host", host, "--cpu", p8))
	assert.Equal(t, "incompatible", r.Comparison.Result)

	err := run(t, &r, "compare", "--host", host, "--cpu", p8, "--fail-incompatible")
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeIncompatible))

	r = report{}
	require.NoError(t, run(t, &r, "compute", "--host", host, "--cpu", p8, "--guest-data"))
	assert.Equal(t, "identical", r.Comparison.Result)
	require.NotNil(t, r.Comparison.Data)
	assert.Equal(t, cpu.PVR(0x004d0000), r.Comparison.Data.PVR)
	assert.Equal(t, cpu.ArchPPC64LE, r.Comparison.Data.Arch)

	err = run(t, &r, "compute", "--host", host, "--cpu", unknown)
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeUnknownModel))

	err = run(t, &r, "compute", "--host", host)
	assert.Error(t, err)
}

func TestDecodeCommand(t *testing.T) {
	var r cpu.DefinitionReport
	require.NoError(t, run(t, &r, "decode", "--pvr", "0x004e1202", "--arch", "ppc64le"))
	assert.Equal(t, header.KindDefinition, r.Kind)
	assert.Equal(t, "POWER9", r.CPU.Model)
	assert.Equal(t, "IBM", r.CPU.Vendor)
	assert.Equal(t, cpu.TypeGuest, r.CPU.Type)

	err := run(t, &r, "decode", "--pvr", "0x004e0000", "--allowed-models", "POWER8,POWER10")
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeConfigUnsupported))

	err = run(t, &r, "decode", "--pvr", "0x12345678")
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeNoModelForIdentifier))

	assert.Error(t, run(t, &r, "decode", "--pvr", "POWER9"))
	assert.Error(t, run(t, &r, "decode", "--pvr", "0x004e0000", "--arch", "x86_64"))
}

func TestBaselineFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "model: POWER9\nvendor: IBM\n")
	b := writeFile(t, dir, "b.yaml", "model: POWER9\n")
	c := writeFile(t, dir, "c.yaml", "model: POWER8\n")

	// a host report is accepted as input
	report := writeFile(t, dir, "report.yaml", `kind: CPUHostData
apiVersion: cpumap.nvidia.com/v1alpha1
data:
  arch: ppc64le
  pvr: "0x004e1202"
cpu:
  type: host
  model: POWER9
  vendor: IBM
`)

	var r cpu.DefinitionReport
	require.NoError(t, run(t, &r, "baseline", a, b, report))
	assert.Equal(t, header.KindBaseline, r.Kind)
	assert.Equal(t, "POWER9", r.CPU.Model)
	assert.Equal(t, "IBM", r.CPU.Vendor)
	assert.Equal(t, cpu.MatchExact, r.CPU.Match)

	err := run(t, &r, "baseline", a, c)
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeOperationFailed))

	assert.Error(t, run(t, &r, "baseline"))
	assert.Error(t, run(t, &r, "baseline", a, filepath.Join(dir, "missing.yaml")))
}

func TestBaselineNodes(t *testing.T) {
	labeled := func(name, model, vendor string) *v1.Node {
		return &v1.Node{
			ObjectMeta: metav1.ObjectMeta{
				Name: name,
				Labels: map[string]string{
					"pool":           "power",
					"labeled":        "yes",
					node.LabelModel:  model,
					node.LabelVendor: vendor,
				},
			},
			Status: v1.NodeStatus{NodeInfo: v1.NodeSystemInfo{Architecture: "ppc64le"}},
		}
	}
	//nolint:staticcheck // fake.NewSimpleClientset is the supported fake for typed clients
	fakeClient := fake.NewSimpleClientset(
		labeled("n1", "POWER9", "IBM"),
		labeled("n2", "POWER9", ""),
		&v1.Node{ObjectMeta: metav1.ObjectMeta{Name: "n3", Labels: map[string]string{"pool": "power"}}},
	)
	orig := newKubeClient
	newKubeClient = func(string) (client.Interface, error) { return fakeClient, nil }
	t.Cleanup(func() { newKubeClient = orig })

	var r cpu.DefinitionReport
	err := run(t, &r, "baseline", "--nodes", "pool=power")
	require.Error(t, err)
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeOperationFailed))
	assert.Contains(t, err.Error(), "n3")

	require.NoError(t, run(t, &r, "baseline", "--nodes", "pool=power", "--skip-unlabeled"))
	assert.Equal(t, "POWER9", r.CPU.Model)
	assert.Equal(t, "IBM", r.CPU.Vendor)

	require.NoError(t, run(t, &r, "baseline", "--nodes", "labeled=yes"))
	assert.Equal(t, "POWER9", r.CPU.Model)

	err = run(t, &r, "baseline", "--nodes", "pool=x86")
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeOperationFailed))
	assert.Error(t, run(t, &r, "baseline", "--nodes", "*", "a.yaml"))
}

func TestUpdateCommand(t *testing.T) {
	dir := t.TempDir()
	host := writeFile(t, dir, "host.yaml", "model: POWER10\nvendor: IBM\n")
	guest := writeFile(t, dir, "guest.yaml", "type: guest\nmode: host-passthrough\n")
	custom := writeFile(t, dir, "custom.yaml", "type: guest\nmode: custom\nmodel: POWER8\n")

	var r cpu.DefinitionReport
	require.NoError(t, run(t, &r, "update", "--guest", guest, "--host", host))
	assert.Equal(t, "POWER10", r.CPU.Model)
	assert.Equal(t, "IBM", r.CPU.Vendor)
	assert.Equal(t, cpu.MatchExact, r.CPU.Match)

	r = cpu.DefinitionReport{}
	require.NoError(t, run(t, &r, "update", "--guest", custom, "--host", host))
	assert.Equal(t, "POWER8", r.CPU.Model)
	assert.Empty(t, r.CPU.Vendor)
}

func TestHostCommand(t *testing.T) {
	procRoot := t.TempDir()
	writeFile(t, procRoot, "cpuinfo", "processor\t: 0\nrevision\t: 2.2 (pvr 004e 1202)\n")

	orig := newHostDriver
	newHostDriver = func(*cli.Command) (cpu.Driver, error) {
		return ppc64.New(ppc64.WithProcRoot(procRoot)), nil
	}
	t.Cleanup(func() { newHostDriver = orig })

	//nolint:staticcheck // fake.NewSimpleClientset is the supported fake for typed clients
	fakeClient := fake.NewSimpleClientset(&v1.Node{ObjectMeta: metav1.ObjectMeta{Name: "p9-node"}})
	origClient := newKubeClient
	newKubeClient = func(string) (client.Interface, error) { return fakeClient, nil }
	t.Cleanup(func() { newKubeClient = origClient })

	var r cpu.HostReport
	require.NoError(t, run(t, &r, "host", "--label-node", "--node-name", "p9-node"))
	assert.Equal(t, header.KindHostData, r.Kind)
	assert.Equal(t, cpu.PVR(0x004e1202), r.Data.PVR)
	require.NotNil(t, r.CPU)
	assert.Equal(t, "POWER9", r.CPU.Model)
	assert.Equal(t, cpu.TypeHost, r.CPU.Type)

	n, err := fakeClient.CoreV1().Nodes().Get(context.Background(), "p9-node", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "POWER9", n.Labels[node.LabelModel])
	assert.Equal(t, "IBM", n.Labels[node.LabelVendor])
	assert.Equal(t, "POWER9", n.Annotations[node.AnnotationModel])

	t.Setenv("NODE_NAME", "")
	t.Setenv("KUBERNETES_NODE_NAME", "")
	assert.Error(t, run(t, &r, "host", "--label-node"))
}

func TestDriverFor(t *testing.T) {
	cmd := &cli.Command{
		Flags: []cli.Flag{cpuMapFlag(), kubeconfigFlag()},
		Action: func(_ context.Context, c *cli.Command) error {
			for _, arch := range []cpu.Arch{cpu.ArchNone, cpu.ArchPPC64, cpu.ArchPPC64LE} {
				d, err := driverFor(c, arch)
				require.NoError(t, err)
				assert.Equal(t, "ppc64", d.Name())
			}
			_, err := driverFor(c, cpu.ArchS390X)
			assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeInvalidRequest))
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), []string{"test"}))
}
