package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
)

type scanFixture struct {
	svc    InterfaceScanService
	email  *fakeEmailService
	cx     *models.Complex
	owner  *models.Profile
	guard  *models.Profile
	admin  *models.Profile
	qrCode string
}

func newScanFixture(t *testing.T) (*scanFixture, *gorm.DB) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cx := seedComplex(t, db, "一号小区")
	owner := seedProfile(t, db, models.RoleResident, cx.ID)
	guard := seedProfile(t, db, models.RoleGuard, cx.ID)
	admin := seedProfile(t, db, models.RoleMain, cx.ID)
	vehicle := seedVehicle(t, db, owner.ID, "34나5678")

	qr := &models.QR{VehicleID: vehicle.ID, Code: "scan-code-1", Status: models.QRStatusActive}
	require.NoError(t, db.Create(qr).Error)

	email := &fakeEmailService{}
	notifications := NewNotificationService(db, cfg)
	menu := NewMenuService(db, cfg, nil)
	svc := NewScanService(db, cfg, notifications, menu, email, nil)
	return &scanFixture{
		svc:    svc,
		email:  email,
		cx:     cx,
		owner:  owner,
		guard:  guard,
		admin:  admin,
		qrCode: qr.Code,
	}, db
}

func TestResolveAttendedClassification(t *testing.T) {
	fx, db := newScanFixture(t)
	caller := callerFor(fx.guard, false)

	// 激活码：住户车辆
	res, err := fx.svc.ResolveAttended(caller, ScanRequest{Code: fx.qrCode, LocationLabel: "B1停车场"})
	require.NoError(t, err)
	assert.Equal(t, models.ScanResultResident, res.Result)
	assert.Equal(t, "34나5678", res.Plate)
	require.NotNil(t, res.Resident)
	assert.Equal(t, fx.owner.ID, res.Resident.ProfileID)

	// 未知码：执法对象
	res, err = fx.svc.ResolveAttended(caller, ScanRequest{Code: "no-such-code", LocationLabel: "地面车位", VehiclePlate: "99다0000"})
	require.NoError(t, err)
	assert.Equal(t, models.ScanResultEnforcement, res.Result)
	assert.Equal(t, "99다0000", res.Plate)
	assert.Nil(t, res.Resident)

	// 未激活码同样按执法对象处理
	var vehicle models.Vehicle
	require.NoError(t, db.Where("owner_profile_id = ?", fx.owner.ID).First(&vehicle).Error)
	require.NoError(t, db.Create(&models.QR{VehicleID: vehicle.ID, Code: "scan-code-2", Status: models.QRStatusInactive}).Error)
	res, err = fx.svc.ResolveAttended(caller, ScanRequest{Code: "scan-code-2", LocationLabel: "入口"})
	require.NoError(t, err)
	assert.Equal(t, models.ScanResultEnforcement, res.Result)

	var scans int64
	db.Model(&models.Scan{}).Count(&scans)
	assert.EqualValues(t, 3, scans)
}

func TestResolveAttendedRequiresLocation(t *testing.T) {
	fx, db := newScanFixture(t)

	_, err := fx.svc.ResolveAttended(callerFor(fx.guard, false), ScanRequest{Code: fx.qrCode, LocationLabel: "  "})
	assert.True(t, code.Is(err, code.ErrScanLocationRequired))

	var scans int64
	db.Model(&models.Scan{}).Count(&scans)
	assert.Zero(t, scans)
}

func TestResolveAttendedGuardToggle(t *testing.T) {
	fx, db := newScanFixture(t)
	cfg := newTestConfig()
	menu := NewMenuService(db, cfg, nil)

	// 小区将保安组的扫码功能关闭后，保安不能扫码，管理员不受影响
	_, err := menu.UpdateToggles(callerFor(fx.admin, true), fx.cx.ID, models.MenuToggles{
		models.RoleGuard.MenuGroup(): {MenuKeyParkingScans: false},
	})
	require.NoError(t, err)

	_, err = fx.svc.ResolveAttended(callerFor(fx.guard, false), ScanRequest{Code: fx.qrCode, LocationLabel: "B1停车场"})
	assert.True(t, code.Is(err, code.ErrFeatureDisabled))

	_, err = fx.svc.ResolveAttended(callerFor(fx.admin, false), ScanRequest{Code: fx.qrCode, LocationLabel: "B1停车场"})
	assert.NoError(t, err)
}

func TestScanNotificationFanOut(t *testing.T) {
	fx, db := newScanFixture(t)

	// 第二个小区的管理员不应收到第一个小区的扫码通知
	otherCx := seedComplex(t, db, "二号小区")
	otherAdmin := seedProfile(t, db, models.RoleMain, otherCx.ID)
	super := seedProfile(t, db, models.RoleSuper, fx.cx.ID)

	_, err := fx.svc.ResolveAttended(callerFor(fx.guard, false), ScanRequest{Code: fx.qrCode, LocationLabel: "B1停车场"})
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.Where("type = ?", models.NotificationTypeScan).Find(&notifications).Error)
	recipients := map[uint]int{}
	for _, n := range notifications {
		recipients[n.ProfileID]++
	}
	assert.Equal(t, 1, recipients[fx.owner.ID], "业主收到扫码通知")
	assert.Equal(t, 1, recipients[fx.admin.ID], "本小区管理员收到通知")
	assert.Equal(t, 1, recipients[super.ID], "超管收到通知")
	assert.Zero(t, recipients[fx.guard.ID], "扫码的保安本人不收通知")
	assert.Zero(t, recipients[otherAdmin.ID], "其他小区管理员不收通知")

	// 业主邮件提醒已发送
	require.Len(t, fx.email.alertSent, 1)
	assert.Equal(t, fx.owner.Email, fx.email.alertSent[0])
}

func TestResolvePublic(t *testing.T) {
	fx, db := newScanFixture(t)

	// 无人值守入口不需要认证，租户归属取业主所在小区
	res, err := fx.svc.ResolvePublic(ScanRequest{Code: fx.qrCode, LocationLabel: "访客扫码"})
	require.NoError(t, err)
	assert.Equal(t, models.ScanResultResident, res.Result)

	var scan models.Scan
	require.NoError(t, db.First(&scan, res.ScanID).Error)
	assert.Nil(t, scan.GuardID)
	assert.Equal(t, fx.cx.ID, scan.ComplexID)
}

func TestPrimaryPhonePreferred(t *testing.T) {
	fx, db := newScanFixture(t)

	require.NoError(t, db.Create(&models.ProfilePhone{ProfileID: fx.owner.ID, Number: "010-1111-2222"}).Error)
	require.NoError(t, db.Create(&models.ProfilePhone{ProfileID: fx.owner.ID, Number: "010-3333-4444", IsPrimary: true}).Error)

	res, err := fx.svc.ResolveAttended(callerFor(fx.guard, false), ScanRequest{Code: fx.qrCode, LocationLabel: "入口"})
	require.NoError(t, err)
	require.NotNil(t, res.Resident)
	assert.Equal(t, "010-3333-4444", res.Resident.Phone)
}

func TestExtractScanCode(t *testing.T) {
	cases := map[string]string{
		"abc123":                              "abc123",
		"https://qr.example.com/q/abc123":     "abc123",
		"https://qr.example.com/q/abc123/":    "abc123",
		"  https://qr.example.com/q/abc123 ":  "abc123",
		"https://cdn.example.com/x/q/abc123":  "abc123",
		"":                                    "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, ExtractScanCode(raw), "raw=%q", raw)
	}
}
