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
	"strings"

	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// PermissionCheck is the outcome of one access review.
type PermissionCheck struct {
	Group     string
	Resource  string
	Verb      string
	Namespace string
	Allowed   bool
	Reason    string
}

func (p PermissionCheck) String() string {
	scope := "cluster-scoped"
	if p.Namespace != "" {
		scope = fmt.Sprintf("namespace %q", p.Namespace)
	}
	return fmt.Sprintf("%s %s (%s)", p.Verb, p.Resource, scope)
}

// requiredPermissions lists what the caller needs to deploy and clean up
// the agent.
func (d *Deployer) requiredPermissions() []PermissionCheck {
	ns := d.config.Namespace
	checks := []PermissionCheck{
		{Resource: "serviceaccounts", Verb: "create", Namespace: ns},
		{Group: rbacGroup, Resource: "roles", Verb: "create", Namespace: ns},
		{Group: rbacGroup, Resource: "rolebindings", Verb: "create", Namespace: ns},
		{Group: "batch", Resource: "jobs", Verb: "create", Namespace: ns},
		{Group: "batch", Resource: "jobs", Verb: "delete", Namespace: ns},
		{Group: "batch", Resource: "jobs", Verb: "watch", Namespace: ns},
		{Resource: "configmaps", Verb: "get", Namespace: ns},
	}
	if d.config.LabelNode {
		checks = append(checks,
			PermissionCheck{Group: rbacGroup, Resource: "clusterroles", Verb: "create"},
			PermissionCheck{Group: rbacGroup, Resource: "clusterrolebindings", Verb: "create"},
		)
	}
	return checks
}

// CheckPermissions runs a SelfSubjectAccessReview for every required
// permission. The returned error lists all denied permissions.
func (d *Deployer) CheckPermissions(ctx context.Context) ([]PermissionCheck, error) {
	checks := d.requiredPermissions()
	var missing []string

	for i := range checks {
		review := &authv1.SelfSubjectAccessReview{
			Spec: authv1.SelfSubjectAccessReviewSpec{
				ResourceAttributes: &authv1.ResourceAttributes{
					Group:     checks[i].Group,
					Resource:  checks[i].Resource,
					Verb:      checks[i].Verb,
					Namespace: checks[i].Namespace,
				},
			},
		}
		result, err := d.clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
		if err != nil {
			return checks, cpuerrors.Wrap(cpuerrors.ErrCodeInternal,
				fmt.Sprintf("failed to check permission to %s", checks[i]), err)
		}
		checks[i].Allowed = result.Status.Allowed
		checks[i].Reason = result.Status.Reason
		if !checks[i].Allowed {
			missing = append(missing, checks[i].String())
		}
	}

	if len(missing) > 0 {
		return checks, cpuerrors.NewWithContext(cpuerrors.ErrCodeInvalidRequest,
			"missing required permissions: "+strings.Join(missing, "; "),
			map[string]any{"namespace": d.config.Namespace})
	}
	return checks, nil
}
