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

	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const rbacGroup = "rbac.authorization.k8s.io"

// roleRules lets the agent publish its report and read a cpu map stored in
// the agent namespace.
func roleRules() []rbacv1.PolicyRule {
	return []rbacv1.PolicyRule{
		{
			APIGroups: []string{""},
			Resources: []string{"configmaps"},
			Verbs:     []string{"create", "get", "update", "patch"},
		},
	}
}

// clusterRoleRules lets the agent label the node it runs on.
func clusterRoleRules() []rbacv1.PolicyRule {
	return []rbacv1.PolicyRule{
		{
			APIGroups: []string{""},
			Resources: []string{"nodes"},
			Verbs:     []string{"get", "patch"},
		},
	}
}

func (d *Deployer) subjects() []rbacv1.Subject {
	return []rbacv1.Subject{
		{
			Kind:      rbacv1.ServiceAccountKind,
			Name:      d.config.ServiceAccountName,
			Namespace: d.config.Namespace,
		},
	}
}

func (d *Deployer) ensureServiceAccount(ctx context.Context) error {
	sa := &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.ServiceAccountName,
			Namespace: d.config.Namespace,
		},
	}
	_, err := d.clientset.CoreV1().ServiceAccounts(d.config.Namespace).Create(ctx, sa, metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

func (d *Deployer) ensureRole(ctx context.Context) error {
	role := &rbacv1.Role{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.ServiceAccountName,
			Namespace: d.config.Namespace,
		},
		Rules: roleRules(),
	}
	_, err := d.clientset.RbacV1().Roles(d.config.Namespace).Create(ctx, role, metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

func (d *Deployer) ensureRoleBinding(ctx context.Context) error {
	rb := &rbacv1.RoleBinding{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.config.ServiceAccountName,
			Namespace: d.config.Namespace,
		},
		Subjects: d.subjects(),
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacGroup,
			Kind:     "Role",
			Name:     d.config.ServiceAccountName,
		},
	}
	_, err := d.clientset.RbacV1().RoleBindings(d.config.Namespace).Create(ctx, rb, metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

// ensureClusterRole is skipped when the agent does not label nodes.
func (d *Deployer) ensureClusterRole(ctx context.Context) error {
	if !d.config.LabelNode {
		return nil
	}
	cr := &rbacv1.ClusterRole{
		ObjectMeta: metav1.ObjectMeta{Name: clusterRoleName},
		Rules:      clusterRoleRules(),
	}
	_, err := d.clientset.RbacV1().ClusterRoles().Create(ctx, cr, metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

func (d *Deployer) ensureClusterRoleBinding(ctx context.Context) error {
	if !d.config.LabelNode {
		return nil
	}
	crb := &rbacv1.ClusterRoleBinding{
		ObjectMeta: metav1.ObjectMeta{Name: clusterRoleName},
		Subjects:   d.subjects(),
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacGroup,
			Kind:     "ClusterRole",
			Name:     clusterRoleName,
		},
	}
	_, err := d.clientset.RbacV1().ClusterRoleBindings().Create(ctx, crb, metav1.CreateOptions{})
	return ignoreAlreadyExists(err)
}

// The delete functions below tolerate missing objects.

func (d *Deployer) deleteServiceAccount(ctx context.Context) error {
	return ignoreNotFound(d.clientset.CoreV1().ServiceAccounts(d.config.Namespace).
		Delete(ctx, d.config.ServiceAccountName, metav1.DeleteOptions{}))
}

func (d *Deployer) deleteRole(ctx context.Context) error {
	return ignoreNotFound(d.clientset.RbacV1().Roles(d.config.Namespace).
		Delete(ctx, d.config.ServiceAccountName, metav1.DeleteOptions{}))
}

func (d *Deployer) deleteRoleBinding(ctx context.Context) error {
	return ignoreNotFound(d.clientset.RbacV1().RoleBindings(d.config.Namespace).
		Delete(ctx, d.config.ServiceAccountName, metav1.DeleteOptions{}))
}

func (d *Deployer) deleteClusterRole(ctx context.Context) error {
	return ignoreNotFound(d.clientset.RbacV1().ClusterRoles().
		Delete(ctx, clusterRoleName, metav1.DeleteOptions{}))
}

func (d *Deployer) deleteClusterRoleBinding(ctx context.Context) error {
	return ignoreNotFound(d.clientset.RbacV1().ClusterRoleBindings().
		Delete(ctx, clusterRoleName, metav1.DeleteOptions{}))
}
