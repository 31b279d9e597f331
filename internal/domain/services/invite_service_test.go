package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
)

type inviteFixture struct {
	svc      InterfaceInviteService
	email    *fakeEmailService
	cx       *models.Complex
	building *models.Building
	unit     *models.Unit
	admin    *models.Profile
}

func newInviteFixture(t *testing.T) (*inviteFixture, *gorm.DB) {
	db := newTestDB(t)
	cx := seedComplex(t, db, "一号小区")
	building := &models.Building{ComplexID: cx.ID, Code: "101"}
	require.NoError(t, db.Create(building).Error)
	unit := &models.Unit{BuildingID: building.ID, Code: "1502"}
	require.NoError(t, db.Create(unit).Error)

	email := &fakeEmailService{}
	fx := &inviteFixture{
		svc:      NewInviteService(db, newTestConfig(), email),
		email:    email,
		cx:       cx,
		building: building,
		unit:     unit,
		admin:    seedProfile(t, db, models.RoleMain, cx.ID),
	}
	return fx, db
}

func TestCreateAndSendValidation(t *testing.T) {
	fx, _ := newInviteFixture(t)
	caller := callerFor(fx.admin, false)

	// 不支持的角色
	_, err := fx.svc.CreateAndSend(caller, CreateInviteRequest{
		Email: "a@example.com", Role: "SUPER",
	})
	assert.True(t, code.Is(err, code.ErrValidation))

	// RESIDENT缺少户号
	_, err = fx.svc.CreateAndSend(caller, CreateInviteRequest{
		Email: "a@example.com", Role: "RESIDENT", BuildingCode: "101",
	})
	assert.True(t, code.Is(err, code.ErrInvalidReference))

	// 楼栋编号无法解析
	_, err = fx.svc.CreateAndSend(caller, CreateInviteRequest{
		Email: "a@example.com", Role: "SUB", BuildingCode: "999",
	})
	assert.True(t, code.Is(err, code.ErrInvalidReference))

	// 合法创建：创建即发送
	invite, err := fx.svc.CreateAndSend(caller, CreateInviteRequest{
		Email: "resident@example.com", Role: "RESIDENT",
		BuildingCode: "101", UnitCode: "1502",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusSent, invite.Status)
	assert.NotNil(t, invite.SentAt)
	assert.NotEmpty(t, invite.Token)
	require.NotNil(t, invite.BuildingID)
	assert.Equal(t, fx.building.ID, *invite.BuildingID)
	require.NotNil(t, invite.UnitID)
	assert.Equal(t, fx.unit.ID, *invite.UnitID)
	assert.Equal(t, []string{"resident@example.com"}, fx.email.inviteSent)
}

func TestCreateAndSendEmailFailureRollsBack(t *testing.T) {
	fx, db := newInviteFixture(t)
	fx.email.inviteErr = errors.New("smtp down")

	_, err := fx.svc.CreateAndSend(callerFor(fx.admin, false), CreateInviteRequest{
		Email: "resident@example.com", Role: "GUARD",
	})
	assert.True(t, code.Is(err, code.ErrInviteEmailSendFailed))

	// 邮件失败时整个创建回滚
	var count int64
	db.Model(&models.Invite{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestLookupExpiryBoundary(t *testing.T) {
	fx, db := newInviteFixture(t)

	invite, err := fx.svc.CreateAndSend(callerFor(fx.admin, false), CreateInviteRequest{
		Email: "resident@example.com", Role: "RESIDENT",
		BuildingCode: "101", UnitCode: "1502",
	})
	require.NoError(t, err)

	// 23小时59分：仍可查询
	almost := time.Now().Add(-(models.InviteTTL - time.Minute))
	require.NoError(t, db.Model(&models.Invite{}).
		Where("id = ?", invite.ID).Update("sent_at", almost).Error)
	found, err := fx.svc.Lookup(invite.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusSent, found.Status)

	// 24小时01分：过期且物理删除
	past := time.Now().Add(-(models.InviteTTL + time.Minute))
	require.NoError(t, db.Model(&models.Invite{}).
		Where("id = ?", invite.ID).Update("sent_at", past).Error)
	_, err = fx.svc.Lookup(invite.Token)
	assert.True(t, code.Is(err, code.ErrInviteExpired))

	var count int64
	db.Model(&models.Invite{}).Where("id = ?", invite.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	// 再次接受同一令牌：邀请已不存在
	_, err = fx.svc.Accept(AcceptInviteRequest{Token: invite.Token, Password: "password123"})
	assert.True(t, code.Is(err, code.ErrInviteNotFound))
}

func TestAcceptWithVehicleIsAtomic(t *testing.T) {
	fx, db := newInviteFixture(t)

	invite, err := fx.svc.CreateAndSend(callerFor(fx.admin, false), CreateInviteRequest{
		Email: "resident@example.com", Role: "RESIDENT",
		BuildingCode: "101", UnitCode: "1502",
		HasVehicle: true, Plate: "12가3456", VehicleType: "EV",
	})
	require.NoError(t, err)

	// 密码过短
	_, err = fx.svc.Accept(AcceptInviteRequest{Token: invite.Token, Password: "short"})
	assert.True(t, code.Is(err, code.ErrValidation))

	result, err := fx.svc.Accept(AcceptInviteRequest{
		Token: invite.Token, Password: "password123", Name: "住户甲",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Profile)
	require.NotNil(t, result.Vehicle)
	require.NotNil(t, result.QR)

	assert.Equal(t, models.RoleResident, result.Profile.Role)
	assert.Equal(t, fx.cx.ID, result.Profile.ComplexID)
	assert.Equal(t, "12가3456", result.Vehicle.Plate)
	assert.Equal(t, models.QRStatusInactive, result.QR.Status)

	// 恰好一个账户、一辆车、一枚QR
	var profiles, vehicles, qrs int64
	db.Model(&models.Profile{}).Where("email = ?", "resident@example.com").Count(&profiles)
	db.Model(&models.Vehicle{}).Where("owner_profile_id = ?", result.Profile.ID).Count(&vehicles)
	db.Model(&models.QR{}).Where("vehicle_id = ?", result.Vehicle.ID).Count(&qrs)
	assert.EqualValues(t, 1, profiles)
	assert.EqualValues(t, 1, vehicles)
	assert.EqualValues(t, 1, qrs)

	// 已接受的邀请不能再次接受
	_, err = fx.svc.Accept(AcceptInviteRequest{Token: invite.Token, Password: "password123"})
	assert.True(t, code.Is(err, code.ErrInviteAlreadyAccepted))
}

func TestAcceptWithoutVehicleCreatesNoVehicleRows(t *testing.T) {
	fx, db := newInviteFixture(t)

	invite, err := fx.svc.CreateAndSend(callerFor(fx.admin, false), CreateInviteRequest{
		Email: "guard@example.com", Role: "GUARD",
	})
	require.NoError(t, err)

	result, err := fx.svc.Accept(AcceptInviteRequest{Token: invite.Token, Password: "password123"})
	require.NoError(t, err)
	assert.Nil(t, result.Vehicle)
	assert.Nil(t, result.QR)

	var vehicles int64
	db.Model(&models.Vehicle{}).Count(&vehicles)
	assert.EqualValues(t, 0, vehicles)
}

func TestBulkUploadAndSend(t *testing.T) {
	fx, db := newInviteFixture(t)
	caller := callerFor(fx.admin, false)

	batchID, invites, err := fx.svc.BulkUpload(caller, 0, []BulkInviteRow{
		{Email: "g1@example.com", Role: "GUARD"},
		{Email: "r1@example.com", Role: "RESIDENT", BuildingCode: "101", UnitCode: "1502"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, batchID)
	require.Len(t, invites, 2)
	for _, inv := range invites {
		assert.Equal(t, models.InviteStatusPending, inv.Status)
		assert.Equal(t, batchID, inv.BatchID)
	}

	// 无效行导致整批回滚
	_, _, err = fx.svc.BulkUpload(caller, 0, []BulkInviteRow{
		{Email: "g2@example.com", Role: "GUARD"},
		{Email: "r2@example.com", Role: "RESIDENT", BuildingCode: "999", UnitCode: "1502"},
	})
	assert.Error(t, err)
	var count int64
	db.Model(&models.Invite{}).Count(&count)
	assert.EqualValues(t, 2, count)

	// 批量发送翻转PENDING→SENT
	ids := []uint{invites[0].ID, invites[1].ID}
	sent, err := fx.svc.BulkSend(caller, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	var sentCount int64
	db.Model(&models.Invite{}).Where("status = ?", models.InviteStatusSent).Count(&sentCount)
	assert.EqualValues(t, 2, sentCount)
}

func TestBulkSendRequiresEditModeForSuper(t *testing.T) {
	fx, db := newInviteFixture(t)

	_, invites, err := fx.svc.BulkUpload(callerFor(fx.admin, false), 0, []BulkInviteRow{
		{Email: "g1@example.com", Role: "GUARD"},
	})
	require.NoError(t, err)
	require.Len(t, invites, 1)

	// 超管未带编辑模式标记：拒绝，状态保持PENDING
	super := seedProfile(t, db, models.RoleSuper, fx.cx.ID)
	sent, err := fx.svc.BulkSend(callerFor(super, false), []uint{invites[0].ID})
	assert.True(t, code.Is(err, code.ErrEditModeRequired))
	assert.Zero(t, sent)

	var unchanged models.Invite
	require.NoError(t, db.First(&unchanged, invites[0].ID).Error)
	assert.Equal(t, models.InviteStatusPending, unchanged.Status)

	// 带编辑模式标记后发送成功
	sent, err = fx.svc.BulkSend(callerFor(super, true), []uint{invites[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestAcceptUnderConcurrency(t *testing.T) {
	fx, db := newInviteFixture(t)

	invite, err := fx.svc.CreateAndSend(callerFor(fx.admin, false), CreateInviteRequest{
		Email: "resident@example.com", Role: "RESIDENT",
		BuildingCode: "101", UnitCode: "1502",
		HasVehicle: true, Plate: "12가3456", VehicleType: "EV",
	})
	require.NoError(t, err)

	// 并发接受同一令牌：条件翻转保证只有一个成功
	const attempts = 8
	var wg sync.WaitGroup
	var successes int64
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if _, err := fx.svc.Accept(AcceptInviteRequest{
				Token: invite.Token, Password: "password123",
			}); err == nil {
				atomic.AddInt64(&successes, 1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, successes)

	var profiles, vehicles int64
	db.Model(&models.Profile{}).Where("email = ?", "resident@example.com").Count(&profiles)
	db.Model(&models.Vehicle{}).Count(&vehicles)
	assert.EqualValues(t, 1, profiles)
	assert.EqualValues(t, 1, vehicles)
}

func TestListScopedAndSweeps(t *testing.T) {
	fx, db := newInviteFixture(t)
	caller := callerFor(fx.admin, false)

	invite, err := fx.svc.CreateAndSend(caller, CreateInviteRequest{
		Email: "g1@example.com", Role: "GUARD",
	})
	require.NoError(t, err)

	// 另一个小区的邀请不可见
	otherCx := seedComplex(t, db, "二号小区")
	otherAdmin := seedProfile(t, db, models.RoleMain, otherCx.ID)
	_, err = fx.svc.CreateAndSend(callerFor(otherAdmin, false), CreateInviteRequest{
		Email: "g2@example.com", Role: "GUARD",
	})
	require.NoError(t, err)

	invites, total, err := fx.svc.List(caller, &models.PaginationQuery{PageNum: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, invites, 1)
	assert.Equal(t, "g1@example.com", invites[0].Email)

	// 列出前清理过期邀请
	past := time.Now().Add(-(models.InviteTTL + time.Hour))
	require.NoError(t, db.Model(&models.Invite{}).
		Where("id = ?", invite.ID).Update("sent_at", past).Error)
	_, total, err = fx.svc.List(caller, &models.PaginationQuery{PageNum: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}
