package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
)

func TestComputeAdminAudience(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, newTestConfig())

	cx := seedComplex(t, db, "一号小区")
	otherCx := seedComplex(t, db, "二号小区")
	main := seedProfile(t, db, models.RoleMain, cx.ID)
	sub := seedProfile(t, db, models.RoleSub, cx.ID)
	guard := seedProfile(t, db, models.RoleGuard, cx.ID)
	resident := seedProfile(t, db, models.RoleResident, cx.ID)
	otherMain := seedProfile(t, db, models.RoleMain, otherCx.ID)
	super := seedProfile(t, db, models.RoleSuper, cx.ID)

	audience, err := svc.ComputeAdminAudience(nil, cx.ID)
	require.NoError(t, err)

	ids := map[uint]int{}
	for _, p := range audience {
		ids[p.ID]++
	}
	assert.Equal(t, 1, ids[main.ID])
	assert.Equal(t, 1, ids[sub.ID])
	assert.Equal(t, 1, ids[super.ID])
	assert.Zero(t, ids[guard.ID], "保安不在管理员受众内")
	assert.Zero(t, ids[resident.ID], "住户不在管理员受众内")
	assert.Zero(t, ids[otherMain.ID], "其他小区管理员不在受众内")
	assert.Len(t, audience, 3)
}

func TestComputeAdminAudienceExcludeAndDedup(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, newTestConfig())

	cx := seedComplex(t, db, "一号小区")
	main := seedProfile(t, db, models.RoleMain, cx.ID)
	super := seedProfile(t, db, models.RoleSuper, cx.ID)

	// 排除名单生效
	audience, err := svc.ComputeAdminAudience(nil, cx.ID, main.ID)
	require.NoError(t, err)
	require.Len(t, audience, 1)
	assert.Equal(t, super.ID, audience[0].ID)

	// complexID为0时只剩超管
	audience, err = svc.ComputeAdminAudience(nil, 0)
	require.NoError(t, err)
	require.Len(t, audience, 1)
	assert.Equal(t, super.ID, audience[0].ID)
}

func TestListByProfilePagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, newTestConfig())
	cx := seedComplex(t, db, "一号小区")
	p := seedProfile(t, db, models.RoleResident, cx.ID)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Notify(nil, p.ID, models.NotificationTypeScan, models.JSONMap{"seq": i}))
	}

	page1, total, err := svc.ListByProfile(p.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page1, 2)

	page3, _, err := svc.ListByProfile(p.ID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	// 新者在前
	assert.Greater(t, page1[0].ID, page1[1].ID)
}

func TestMarkReadOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, newTestConfig())
	cx := seedComplex(t, db, "一号小区")
	owner := seedProfile(t, db, models.RoleResident, cx.ID)
	stranger := seedProfile(t, db, models.RoleResident, cx.ID)

	require.NoError(t, svc.Notify(nil, owner.ID, models.NotificationTypeScan, models.JSONMap{"plate": "12가3456"}))
	var n models.Notification
	require.NoError(t, db.Where("profile_id = ?", owner.ID).First(&n).Error)

	// 非收件人不能标记已读
	err := svc.MarkRead(stranger.ID, n.ID)
	assert.True(t, code.Is(err, code.ErrNotificationNotFound))

	require.NoError(t, svc.MarkRead(owner.ID, n.ID))
	require.NoError(t, db.First(&n, n.ID).Error)
	assert.True(t, n.IsRead)
}
