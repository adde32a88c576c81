package service

import (
	"context"
	"testing"

	"github.com/mautops/budget-gin/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateHierarchyNodes 测试层级节点的创建与父节点校验
func TestCreateHierarchyNodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 名称非法
	_, err := env.hierarchySvc.CreateGroup(ctx, &CreateGroupRequest{Name: "  "})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	group, err := env.hierarchySvc.CreateGroup(ctx, &CreateGroupRequest{Name: "Acme Holding"})
	require.NoError(t, err)

	// 父节点不存在
	_, err = env.hierarchySvc.CreateOrganization(ctx, &CreateOrganizationRequest{Name: "Acme Manufacturing", GroupID: "missing"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	org, err := env.hierarchySvc.CreateOrganization(ctx, &CreateOrganizationRequest{Name: "Acme Manufacturing", GroupID: group.ID})
	require.NoError(t, err)

	_, err = env.hierarchySvc.CreateDepartment(ctx, &CreateDepartmentRequest{Name: "IT", OrganizationID: "missing"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	dept, err := env.hierarchySvc.CreateDepartment(ctx, &CreateDepartmentRequest{Name: "IT", OrganizationID: org.ID})
	require.NoError(t, err)

	_, err = env.hierarchySvc.CreateSubDepartment(ctx, &CreateSubDepartmentRequest{Name: "Infrastructure", DepartmentID: "missing"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	sub, err := env.hierarchySvc.CreateSubDepartment(ctx, &CreateSubDepartmentRequest{Name: "Infrastructure", DepartmentID: dept.ID})
	require.NoError(t, err)
	assert.Equal(t, dept.ID, sub.DepartmentID)
}

// TestDeleteWithChildrenBlocked 测试有子节点时删除被拒绝
func TestDeleteWithChildrenBlocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	group, _, dept := env.seedHierarchy(t)
	sub, err := env.hierarchySvc.CreateSubDepartment(ctx, &CreateSubDepartmentRequest{Name: "Infrastructure", DepartmentID: dept.ID})
	require.NoError(t, err)

	// 自上而下删除全部被拒
	err = env.hierarchySvc.DeleteGroup(ctx, group.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	err = env.hierarchySvc.DeleteDepartment(ctx, dept.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// 自下而上逐层删除成功
	require.NoError(t, env.hierarchySvc.DeleteSubDepartment(ctx, sub.ID))
	require.NoError(t, env.hierarchySvc.DeleteDepartment(ctx, dept.ID))

	orgs, err := env.hierarchySvc.ListOrganizations(group.ID)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	require.NoError(t, env.hierarchySvc.DeleteOrganization(ctx, orgs[0].ID))
	require.NoError(t, env.hierarchySvc.DeleteGroup(ctx, group.ID))

	// 已删除节点再删报 NotFound
	err = env.hierarchySvc.DeleteGroup(ctx, group.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

// TestResolveAncestors 测试祖先链解析
func TestResolveAncestors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	group, org, dept := env.seedHierarchy(t)
	sub, err := env.hierarchySvc.CreateSubDepartment(ctx, &CreateSubDepartmentRequest{Name: "Infrastructure", DepartmentID: dept.ID})
	require.NoError(t, err)

	// 子部门解析出完整链路
	chain, err := env.hierarchySvc.ResolveAncestors(NodeSubDepartment, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, chain.SubDepartment)
	require.NotNil(t, chain.Department)
	require.NotNil(t, chain.Organization)
	require.NotNil(t, chain.Group)
	assert.Equal(t, sub.ID, chain.SubDepartment.ID)
	assert.Equal(t, dept.ID, chain.Department.ID)
	assert.Equal(t, org.ID, chain.Organization.ID)
	assert.Equal(t, group.ID, chain.Group.ID)

	// 部门起点不含子部门
	chain, err = env.hierarchySvc.ResolveAncestors(NodeDepartment, dept.ID)
	require.NoError(t, err)
	assert.Nil(t, chain.SubDepartment)
	require.NotNil(t, chain.Group)
	assert.Equal(t, group.ID, chain.Group.ID)

	// 集团起点只有自身
	chain, err = env.hierarchySvc.ResolveAncestors(NodeGroup, group.ID)
	require.NoError(t, err)
	require.NotNil(t, chain.Group)
	assert.Nil(t, chain.Organization)

	// 未知节点类型
	_, err = env.hierarchySvc.ResolveAncestors("team", group.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// 节点不存在
	_, err = env.hierarchySvc.ResolveAncestors(NodeDepartment, "missing")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

// TestListHierarchy 测试层级列表查询
func TestListHierarchy(t *testing.T) {
	env := newTestEnv(t)
	group, org, dept := env.seedHierarchy(t)

	groups, err := env.hierarchySvc.ListGroups()
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	orgs, err := env.hierarchySvc.ListOrganizations(group.ID)
	require.NoError(t, err)
	assert.Len(t, orgs, 1)

	depts, err := env.hierarchySvc.ListDepartments(org.ID)
	require.NoError(t, err)
	assert.Len(t, depts, 1)

	subs, err := env.hierarchySvc.ListSubDepartments(dept.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
