package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/utils"
)

func newProfileService(db *gorm.DB) InterfaceProfileService {
	cfg := newTestConfig()
	return NewProfileService(db, cfg, NewNotificationService(db, cfg))
}

func TestUpdateSelfBasicFields(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(db)
	cx := seedComplex(t, db, "一号小区")
	p := seedProfile(t, db, models.RoleResident, cx.ID)
	admin := seedProfile(t, db, models.RoleMain, cx.ID)

	updated, err := svc.UpdateSelf(callerFor(p, false), UpdateProfileRequest{
		Name:     "홍길동",
		Phone:    "010-9999-8888",
		Password: "newpass123",
	})
	require.NoError(t, err)
	assert.Equal(t, "홍길동", updated.Name)
	assert.Equal(t, "010-9999-8888", updated.Phone)
	assert.True(t, utils.CheckPasswordHash("newpass123", updated.Password))

	// 管理员收到 profile_update 通知，本人不收
	var notifications []models.Notification
	require.NoError(t, db.Where("type = ?", models.NotificationTypeProfileUpdate).Find(&notifications).Error)
	recipients := map[uint]int{}
	for _, n := range notifications {
		recipients[n.ProfileID]++
	}
	assert.Equal(t, 1, recipients[admin.ID])
	assert.Zero(t, recipients[p.ID])
}

func TestUpdateSelfShortPassword(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(db)
	cx := seedComplex(t, db, "一号小区")
	p := seedProfile(t, db, models.RoleResident, cx.ID)

	_, err := svc.UpdateSelf(callerFor(p, false), UpdateProfileRequest{Password: "short"})
	assert.True(t, code.Is(err, code.ErrValidation))
}

func TestUpdateSelfDeclareVehicle(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(db)
	cx := seedComplex(t, db, "一号小区")
	p := seedProfile(t, db, models.RoleResident, cx.ID)
	hasVehicle := true

	// 缺少车牌或类型时拒绝
	_, err := svc.UpdateSelf(callerFor(p, false), UpdateProfileRequest{HasVehicle: &hasVehicle})
	assert.True(t, code.Is(err, code.ErrValidation))

	_, err = svc.UpdateSelf(callerFor(p, false), UpdateProfileRequest{
		HasVehicle:  &hasVehicle,
		Plate:       "56다7890",
		VehicleType: string(models.VehicleTypeICE),
	})
	require.NoError(t, err)

	// 再次声明不会产生第二辆车
	_, err = svc.UpdateSelf(callerFor(p, false), UpdateProfileRequest{
		HasVehicle:  &hasVehicle,
		Plate:       "11가1111",
		VehicleType: string(models.VehicleTypeICE),
	})
	require.NoError(t, err)

	var count int64
	db.Model(&models.Vehicle{}).Where("owner_profile_id = ?", p.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestListByScope(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(db)
	cx := seedComplex(t, db, "一号小区")
	otherCx := seedComplex(t, db, "二号小区")
	admin := seedProfile(t, db, models.RoleMain, cx.ID)
	seedProfile(t, db, models.RoleResident, cx.ID)
	seedProfile(t, db, models.RoleResident, otherCx.ID)
	super := seedProfile(t, db, models.RoleSuper, cx.ID)

	pagination := &models.PaginationQuery{PageNum: 1, PageSize: 10}

	// MAIN只能看到本小区账户
	profiles, total, err := svc.ListByScope(callerFor(admin, false), pagination)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	for _, p := range profiles {
		assert.Equal(t, cx.ID, p.ComplexID)
	}

	// SUPER不限小区
	_, total, err = svc.ListByScope(callerFor(super, false), pagination)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	// 住户无权列出
	resident := seedProfile(t, db, models.RoleResident, cx.ID)
	_, _, err = svc.ListByScope(callerFor(resident, false), pagination)
	assert.True(t, code.Is(err, code.ErrForbidden))
}

func TestDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(db)
	cx := seedComplex(t, db, "一号小区")
	admin := seedProfile(t, db, models.RoleMain, cx.ID)
	p := seedProfile(t, db, models.RoleResident, cx.ID)
	vehicle := seedVehicle(t, db, p.ID, "78라9012")
	require.NoError(t, db.Create(&models.QR{VehicleID: vehicle.ID, Code: "del-1", Status: models.QRStatusActive}).Error)
	require.NoError(t, db.Create(&models.ProfilePhone{ProfileID: p.ID, Number: "010-0000-0000"}).Error)
	require.NoError(t, db.Create(&models.Notification{ProfileID: p.ID, Type: models.NotificationTypeScan}).Error)

	// 其他小区管理员无权删除
	otherCx := seedComplex(t, db, "二号小区")
	otherAdmin := seedProfile(t, db, models.RoleMain, otherCx.ID)
	err := svc.Delete(callerFor(otherAdmin, false), p.ID)
	assert.True(t, code.Is(err, code.ErrScopeViolation))

	require.NoError(t, svc.Delete(callerFor(admin, false), p.ID))

	var profiles, vehicles, qrs, phones, notifications int64
	db.Model(&models.Profile{}).Where("id = ?", p.ID).Count(&profiles)
	db.Model(&models.Vehicle{}).Where("owner_profile_id = ?", p.ID).Count(&vehicles)
	db.Model(&models.QR{}).Where("vehicle_id = ?", vehicle.ID).Count(&qrs)
	db.Model(&models.ProfilePhone{}).Where("profile_id = ?", p.ID).Count(&phones)
	db.Model(&models.Notification{}).Where("profile_id = ?", p.ID).Count(&notifications)
	assert.Zero(t, profiles)
	assert.Zero(t, vehicles)
	assert.Zero(t, qrs)
	assert.Zero(t, phones)
	assert.Zero(t, notifications)
}

func TestDeleteRequiresEditModeForSuper(t *testing.T) {
	db := newTestDB(t)
	svc := newProfileService(db)
	cx := seedComplex(t, db, "一号小区")
	super := seedProfile(t, db, models.RoleSuper, cx.ID)
	p := seedProfile(t, db, models.RoleResident, cx.ID)

	err := svc.Delete(callerFor(super, false), p.ID)
	assert.True(t, code.Is(err, code.ErrEditModeRequired))

	require.NoError(t, svc.Delete(callerFor(super, true), p.ID))
}
