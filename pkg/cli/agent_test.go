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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authv1 "k8s.io/api/authorization/v1"
	batchv1 "k8s.io/api/batch/v1"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/NVIDIA/cpumap/pkg/cpu"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/k8s/client"
)

const agentReport = `kind: CPUHostData
data:
  arch: ppc64le
  pvr: "0x00801200"
cpu:
  type: host
  mode: custom
  model: POWER10
  vendor: IBM
`

// fakeCluster returns a clientset where the agent Job completes at once
// and its report is already published.
func fakeCluster(t *testing.T, jobCondition batchv1.JobConditionType) *fake.Clientset {
	t.Helper()
	c := fake.NewClientset(&v1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "cpumap-host", Namespace: "kube-system"},
		Data:       map[string]string{"format": "yaml", "document.yaml": agentReport},
	})
	c.PrependReactor("create", "selfsubjectaccessreviews", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, &authv1.SelfSubjectAccessReview{Status: authv1.SubjectAccessReviewStatus{Allowed: true}}, nil
	})

	fw := watch.NewFakeWithChanSize(1, false)
	fw.Modify(&batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{Name: defaultAgentName, Namespace: "kube-system"},
		Status: batchv1.JobStatus{Conditions: []batchv1.JobCondition{
			{Type: jobCondition, Status: v1.ConditionTrue},
		}},
	})
	c.PrependWatchReactor("jobs", k8stesting.DefaultWatchReactor(fw, nil))

	orig := newKubeClient
	newKubeClient = func(string) (client.Interface, error) { return c, nil }
	t.Cleanup(func() { newKubeClient = orig })
	return c
}

func TestHostDeployAgent(t *testing.T) {
	c := fakeCluster(t, batchv1.JobComplete)

	var r cpu.HostReport
	require.NoError(t, run(t, &r, "host", "--deploy-agent", "--node", "p10-node", "--cleanup-rbac"))
	assert.Equal(t, cpu.PVR(0x00801200), r.Data.PVR)
	require.NotNil(t, r.CPU)
	assert.Equal(t, "POWER10", r.CPU.Model)

	ctx := context.Background()
	_, err := c.BatchV1().Jobs("kube-system").Get(ctx, defaultAgentName, metav1.GetOptions{})
	assert.Error(t, err, "agent Job is cleaned up")
	_, err = c.CoreV1().ServiceAccounts("kube-system").Get(ctx, defaultAgentName, metav1.GetOptions{})
	assert.Error(t, err, "agent RBAC is cleaned up")
}

func TestHostDeployAgentFailed(t *testing.T) {
	fakeCluster(t, batchv1.JobFailed)

	var r cpu.HostReport
	err := run(t, &r, "host", "--deploy-agent", "--cleanup=false")
	require.Error(t, err)
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeOperationFailed))
}

func TestHostDeployAgentRejectsLocalMap(t *testing.T) {
	fakeCluster(t, batchv1.JobComplete)

	var r cpu.HostReport
	err := run(t, &r, "--cpu-map", "/tmp/map.yaml", "host", "--deploy-agent")
	require.Error(t, err)
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeInvalidRequest))
}

func TestHostDeployAgentBadToleration(t *testing.T) {
	fakeCluster(t, batchv1.JobComplete)

	var r cpu.HostReport
	err := run(t, &r, "host", "--deploy-agent", "--toleration", "no-effect")
	assert.True(t, cpuerrors.IsCode(err, cpuerrors.ErrCodeInvalidRequest))
}
