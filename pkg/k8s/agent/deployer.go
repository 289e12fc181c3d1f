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

package agent

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/api/errors"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/serializer"
)

// Deploy checks the caller's permissions, then creates the RBAC resources
// (kept when present) and a fresh Job.
func (d *Deployer) Deploy(ctx context.Context) error {
	if _, err := d.CheckPermissions(ctx); err != nil {
		return fmt.Errorf("insufficient permissions to deploy agent: %w", err)
	}

	steps := []struct {
		what string
		fn   func(context.Context) error
	}{
		{"ServiceAccount", d.ensureServiceAccount},
		{"Role", d.ensureRole},
		{"RoleBinding", d.ensureRoleBinding},
		{"ClusterRole", d.ensureClusterRole},
		{"ClusterRoleBinding", d.ensureClusterRoleBinding},
		{"Job", d.ensureJob},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("failed to create %s: %w", step.what, err)
		}
	}
	return nil
}

// WaitForCompletion waits for the agent Job to succeed.
func (d *Deployer) WaitForCompletion(ctx context.Context, timeout time.Duration) error {
	return d.waitForJobCompletion(ctx, timeout)
}

// Report reads the host report the agent wrote to its output ConfigMap.
func (d *Deployer) Report(ctx context.Context) (*cpu.HostReport, error) {
	namespace, name, err := serializer.ParseConfigMapURI(d.config.Output)
	if err != nil {
		return nil, err
	}
	report, err := serializer.FromConfigMap[cpu.HostReport](ctx, d.clientset, namespace, name)
	if err != nil {
		return nil, err
	}
	if report.Data == nil {
		return nil, cpuerrors.NewWithContext(cpuerrors.ErrCodeNotFound, "agent report holds no host data",
			map[string]any{"output": d.config.Output})
	}
	return report, nil
}

// Cleanup removes the Job and, with opts.RBAC, the RBAC resources.
func (d *Deployer) Cleanup(ctx context.Context, opts CleanupOptions) error {
	if !opts.Enabled {
		return nil
	}

	if err := d.deleteJob(ctx); err != nil {
		return fmt.Errorf("failed to delete Job: %w", err)
	}
	if !opts.RBAC {
		return nil
	}

	steps := []struct {
		what string
		fn   func(context.Context) error
	}{
		{"ClusterRoleBinding", d.deleteClusterRoleBinding},
		{"ClusterRole", d.deleteClusterRole},
		{"RoleBinding", d.deleteRoleBinding},
		{"Role", d.deleteRole},
		{"ServiceAccount", d.deleteServiceAccount},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("failed to delete %s: %w", step.what, err)
		}
	}
	return nil
}

func ignoreAlreadyExists(err error) error {
	if errors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

func ignoreNotFound(err error) error {
	if errors.IsNotFound(err) {
		return nil
	}
	return err
}
