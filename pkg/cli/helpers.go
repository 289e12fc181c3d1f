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
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	"github.com/NVIDIA/cpumap/pkg/cpumap"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/k8s/client"
	"github.com/NVIDIA/cpumap/pkg/ppc64"
	"github.com/NVIDIA/cpumap/pkg/serializer"
)

// Flag constructors return a new flag per command since urfave/cli keeps
// parsed state in the flag.
func cpuMapFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "cpu-map",
		Usage:   `CPU map location: "embedded", a file path or cm://namespace/name[/key]`,
		Value:   "embedded",
		Sources: cli.EnvVars("CPUMAP_SOURCE"),
	}
}

func kubeconfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "Path to kubeconfig for cm:// locations and node access (default: standard discovery)",
		Sources: cli.EnvVars("KUBECONFIG"),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output destination: file path or cm://namespace/name (default: stdout)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Value:   string(serializer.FormatYAML),
		Usage:   fmt.Sprintf("Output format (supported: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
	}
}

func allowedModelsFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "allowed-models",
		Usage:   "Models the hypervisor accepts (default: all)",
		Sources: cli.EnvVars("CPUMAP_ALLOWED_MODELS"),
	}
}

// newKubeClient is replaced in tests.
var newKubeClient = func(kubeconfig string) (client.Interface, error) {
	c, _, err := client.GetKubeClientWithConfig(kubeconfig)
	return c, err
}

func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q (supported: %s)",
			f, strings.Join(serializer.SupportedFormats(), ", "))
	}
	return f, nil
}

// driverFor returns the driver handling arch. ArchNone selects ppc64, the
// only family the CPU map serves.
func driverFor(cmd *cli.Command, arch cpu.Arch) (cpu.Driver, error) {
	src, err := cpumap.ParseURI(cmd.String("cpu-map"), cmd.String("kubeconfig"))
	if err != nil {
		return nil, err
	}

	d := ppc64.New(ppc64.WithSource(src))
	if arch != cpu.ArchNone && !cpu.Supports(d, arch) {
		return nil, cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest,
			"no CPU driver for architecture %s", arch)
	}
	return d, nil
}

// allowList returns the allow-list of the command. Values may be comma
// separated.
func allowList(cmd *cli.Command) *cpu.AllowList {
	return cpu.ParseAllowList(strings.Join(cmd.StringSlice("allowed-models"), ","))
}

// definitionFile accepts a bare CPU definition as well as any report with
// a cpu field, so the output of one command can feed another.
type definitionFile struct {
	cpu.Definition `json:",inline" yaml:",inline"`

	CPU *cpu.Definition `json:"cpu,omitempty" yaml:"cpu,omitempty"`
}

func loadDefinition(path, kubeconfig string) (*cpu.Definition, error) {
	f, err := serializer.FromFileWithKubeconfig[definitionFile](path, kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load CPU definition from %q: %w", path, err)
	}

	def := &f.Definition
	if f.CPU != nil {
		def = f.CPU
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CPU definition in %q: %w", path, err)
	}
	return def, nil
}

// writeResult serializes v to the command's output.
func writeResult(ctx context.Context, cmd *cli.Command, v any) error {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	ser := serializer.NewFileWriterOrStdout(format, cmd.String("output"))
	defer func() {
		if closer, ok := ser.(serializer.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close serializer", "error", err)
			}
		}
	}()

	return ser.Serialize(ctx, v)
}

// comparisonError turns an error comparison into a command error.
func comparisonError(c cpu.Comparison) error {
	if c.Result == cpu.ResultError {
		return c.Err
	}
	return nil
}
