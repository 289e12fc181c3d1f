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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authv1 "k8s.io/api/authorization/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

const testNamespace = "kube-system"

func testConfig() Config {
	return Config{
		Namespace:          testNamespace,
		ServiceAccountName: "cpumap-agent",
		JobName:            "cpumap-agent",
		NodeName:           "node-1",
		Tolerations:        DefaultTolerations(),
		Output:             "cm://kube-system/cpumap-host",
		CPUMap:             "embedded",
		AllowedModels:      []string{"POWER8", "POWER9"},
		LabelNode:          true,
		LogLevel:           "debug",
	}
}

func allowAll(clientset *fake.Clientset, allowed bool) {
	clientset.PrependReactor("create", "selfsubjectaccessreviews",
		func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, &authv1.SelfSubjectAccessReview{
				Status: authv1.SubjectAccessReviewStatus{Allowed: allowed, Reason: "test"},
			}, nil
		})
}

func TestCheckPermissions(t *testing.T) {
	tests := []struct {
		name      string
		allowed   bool
		labelNode bool
		wantErr   bool
		wantCount int
	}{
		{"allowed with labeling", true, true, false, 9},
		{"allowed without labeling", true, false, false, 7},
		{"denied", false, true, true, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientset := fake.NewClientset()
			allowAll(clientset, tt.allowed)

			cfg := testConfig()
			cfg.LabelNode = tt.labelNode
			checks, err := NewDeployer(clientset, cfg).CheckPermissions(context.Background())

			assert.Len(t, checks, tt.wantCount)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeInvalidRequest))
				assert.Contains(t, err.Error(), "missing required permissions")
				assert.Contains(t, err.Error(), "create jobs")
				return
			}
			require.NoError(t, err)
			for _, c := range checks {
				assert.True(t, c.Allowed, c.String())
			}
		})
	}
}

func TestDeploy(t *testing.T) {
	ctx := context.Background()
	clientset := fake.NewClientset()
	allowAll(clientset, true)

	d := NewDeployer(clientset, testConfig())
	require.NoError(t, d.Deploy(ctx))

	_, err := clientset.CoreV1().ServiceAccounts(testNamespace).Get(ctx, "cpumap-agent", metav1.GetOptions{})
	require.NoError(t, err)

	role, err := clientset.RbacV1().Roles(testNamespace).Get(ctx, "cpumap-agent", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"configmaps"}, role.Rules[0].Resources)

	cr, err := clientset.RbacV1().ClusterRoles().Get(ctx, clusterRoleName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"nodes"}, cr.Rules[0].Resources)
	assert.Contains(t, cr.Rules[0].Verbs, "patch")

	crb, err := clientset.RbacV1().ClusterRoleBindings().Get(ctx, clusterRoleName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, clusterRoleName, crb.RoleRef.Name)

	job, err := clientset.BatchV1().Jobs(testNamespace).Get(ctx, "cpumap-agent", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "node-1", job.Spec.Template.Spec.NodeSelector[hostnameLabel])

	// A second deploy reuses RBAC and replaces the Job.
	require.NoError(t, d.Deploy(ctx))
}

func TestDeployWithoutLabeling(t *testing.T) {
	ctx := context.Background()
	clientset := fake.NewClientset()
	allowAll(clientset, true)

	cfg := testConfig()
	cfg.LabelNode = false
	require.NoError(t, NewDeployer(clientset, cfg).Deploy(ctx))

	crs, err := clientset.RbacV1().ClusterRoles().List(ctx, metav1.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, crs.Items)
}

func TestDeployDenied(t *testing.T) {
	clientset := fake.NewClientset()
	allowAll(clientset, false)

	err := NewDeployer(clientset, testConfig()).Deploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient permissions")

	jobs, err := clientset.BatchV1().Jobs(testNamespace).List(context.Background(), metav1.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, jobs.Items)
}

func TestBuildJob(t *testing.T) {
	d := NewDeployer(fake.NewClientset(), testConfig())
	job := d.buildJob()

	assert.Equal(t, int32(0), *job.Spec.BackoffLimit)
	spec := job.Spec.Template.Spec
	assert.Equal(t, corev1.RestartPolicyNever, spec.RestartPolicy)
	assert.Equal(t, "cpumap-agent", spec.ServiceAccountName)
	assert.True(t, *spec.SecurityContext.RunAsNonRoot)

	require.Len(t, spec.Containers, 1)
	c := spec.Containers[0]
	assert.Equal(t, DefaultImage, c.Image)
	assert.Equal(t, "spec.nodeName", c.Env[0].ValueFrom.FieldRef.FieldPath)
	assert.False(t, *c.SecurityContext.AllowPrivilegeEscalation)

	args := strings.Join(c.Args, " ")
	assert.Contains(t, args, "--output cm://kube-system/cpumap-host")
	assert.Contains(t, args, "--cpu-map embedded")
	assert.Contains(t, args, "host --label-node --allowed-models POWER8,POWER9")
}

func TestNodeSelector(t *testing.T) {
	cfg := testConfig()
	cfg.NodeName = ""
	cfg.NodeSelector = map[string]string{"kubernetes.io/arch": "ppc64le"}
	d := NewDeployer(fake.NewClientset(), cfg)
	assert.Equal(t, map[string]string{"kubernetes.io/arch": "ppc64le"}, d.nodeSelector())

	cfg.NodeName = "node-2"
	d = NewDeployer(fake.NewClientset(), cfg)
	assert.Equal(t, "node-2", d.nodeSelector()[hostnameLabel])
	assert.NotContains(t, cfg.NodeSelector, hostnameLabel, "config selector must not be mutated")
}

func TestWaitForCompletion(t *testing.T) {
	tests := []struct {
		name      string
		condition batchv1.JobConditionType
		wantCode  cpuerrors.ErrorCode
	}{
		{"complete", batchv1.JobComplete, ""},
		{"failed", batchv1.JobFailed, cpuerrors.ErrCodeOperationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientset := fake.NewClientset()
			fw := watch.NewFakeWithChanSize(2, false)
			clientset.PrependWatchReactor("jobs", k8stesting.DefaultWatchReactor(fw, nil))

			fw.Add(&corev1.Pod{})
			fw.Modify(&batchv1.Job{
				ObjectMeta: metav1.ObjectMeta{Name: "cpumap-agent", Namespace: testNamespace},
				Status: batchv1.JobStatus{Conditions: []batchv1.JobCondition{
					{Type: tt.condition, Status: corev1.ConditionTrue, Message: "done"},
				}},
			})

			err := NewDeployer(clientset, testConfig()).WaitForCompletion(context.Background(), time.Minute)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, cpuerrors.CodeOf(err))
		})
	}
}

func TestWaitForCompletionTimeout(t *testing.T) {
	clientset := fake.NewClientset()
	fw := watch.NewFake()
	clientset.PrependWatchReactor("jobs", k8stesting.DefaultWatchReactor(fw, nil))

	err := NewDeployer(clientset, testConfig()).WaitForCompletion(context.Background(), 10*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, cpuerrors.ErrCodeTimeout, cpuerrors.CodeOf(err))
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	clientset := fake.NewClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "cpumap-host", Namespace: testNamespace},
		Data: map[string]string{
			"format": "yaml",
			"document.yaml": `kind: CPUHostData
data:
  arch: ppc64le
  pvr: "0x004e1202"
cpu:
  type: host
  mode: custom
  model: POWER9
`,
		},
	})

	report, err := NewDeployer(clientset, testConfig()).Report(ctx)
	require.NoError(t, err)
	require.NotNil(t, report.Data)
	assert.Equal(t, cpu.ArchPPC64LE, report.Data.Arch)
	assert.Equal(t, cpu.PVR(0x004e1202), report.Data.PVR)
	require.NotNil(t, report.CPU)
	assert.Equal(t, "POWER9", report.CPU.Model)
}

func TestReportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing configmap", func(t *testing.T) {
		_, err := NewDeployer(fake.NewClientset(), testConfig()).Report(ctx)
		assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeNotFound))
	})

	t.Run("no host data", func(t *testing.T) {
		clientset := fake.NewClientset(&corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: "cpumap-host", Namespace: testNamespace},
			Data:       map[string]string{"document.yaml": "kind: CPUHostData\n"},
		})
		_, err := NewDeployer(clientset, testConfig()).Report(ctx)
		assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeNotFound))
	})

	t.Run("bad output uri", func(t *testing.T) {
		cfg := testConfig()
		cfg.Output = "file.yaml"
		_, err := NewDeployer(fake.NewClientset(), cfg).Report(ctx)
		assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeInvalidRequest))
	})
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	clientset := fake.NewClientset()
	allowAll(clientset, true)
	d := NewDeployer(clientset, testConfig())
	require.NoError(t, d.Deploy(ctx))

	require.NoError(t, d.Cleanup(ctx, CleanupOptions{}))
	_, err := clientset.BatchV1().Jobs(testNamespace).Get(ctx, "cpumap-agent", metav1.GetOptions{})
	require.NoError(t, err, "disabled cleanup keeps the Job")

	require.NoError(t, d.Cleanup(ctx, CleanupOptions{Enabled: true}))
	_, err = clientset.BatchV1().Jobs(testNamespace).Get(ctx, "cpumap-agent", metav1.GetOptions{})
	require.Error(t, err)
	_, err = clientset.CoreV1().ServiceAccounts(testNamespace).Get(ctx, "cpumap-agent", metav1.GetOptions{})
	require.NoError(t, err, "RBAC stays without opts.RBAC")

	require.NoError(t, d.Cleanup(ctx, CleanupOptions{Enabled: true, RBAC: true}))
	_, err = clientset.CoreV1().ServiceAccounts(testNamespace).Get(ctx, "cpumap-agent", metav1.GetOptions{})
	require.Error(t, err)
	_, err = clientset.RbacV1().ClusterRoles().Get(ctx, clusterRoleName, metav1.GetOptions{})
	require.Error(t, err)
}

func TestParseNodeSelectors(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, map[string]string{}, false},
		{"single", []string{"kubernetes.io/arch=ppc64le"}, map[string]string{"kubernetes.io/arch": "ppc64le"}, false},
		{"empty value", []string{"role="}, map[string]string{"role": ""}, false},
		{"missing equals", []string{"role"}, nil, true},
		{"missing key", []string{"=x"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNodeSelectors(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTolerations(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []corev1.Toleration
		wantErr bool
	}{
		{"default", nil, DefaultTolerations(), false},
		{
			"key value effect",
			[]string{"dedicated=power:NoSchedule"},
			[]corev1.Toleration{{Key: "dedicated", Value: "power", Operator: corev1.TolerationOpEqual, Effect: corev1.TaintEffectNoSchedule}},
			false,
		},
		{
			"key effect",
			[]string{"dedicated:NoExecute"},
			[]corev1.Toleration{{Key: "dedicated", Operator: corev1.TolerationOpExists, Effect: corev1.TaintEffectNoExecute}},
			false,
		},
		{"missing effect", []string{"dedicated=power"}, nil, true},
		{"extra colon", []string{"a:b:c"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTolerations(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
