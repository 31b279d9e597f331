package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/infrastructure/config"
)

var testDBSeq int

// newTestDB 创建内存sqlite数据库并迁移全部模型，每个测试独立一库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Complex{},
		&models.Building{},
		&models.Unit{},
		&models.Profile{},
		&models.ProfilePhone{},
		&models.Invite{},
		&models.Vehicle{},
		&models.QR{},
		&models.Scan{},
		&models.Notification{},
		&models.Settings{},
	))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		JWTSecretKey: "test-secret",
		QROrigin:     "https://qr.example.com",
	}
}

var profileSeq int

// seedProfile 写入一个账户并返回
func seedProfile(t *testing.T, db *gorm.DB, role models.Role, complexID uint) *models.Profile {
	t.Helper()
	profileSeq++
	p := &models.Profile{
		Email:     fmt.Sprintf("user%d@example.com", profileSeq),
		Password:  "password123",
		Name:      fmt.Sprintf("用户%d", profileSeq),
		Role:      role,
		ComplexID: complexID,
		Status:    "active",
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// seedComplex 写入一个小区
func seedComplex(t *testing.T, db *gorm.DB, name string) *models.Complex {
	t.Helper()
	c := &models.Complex{Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

// seedVehicle 为账户写入一辆车
func seedVehicle(t *testing.T, db *gorm.DB, ownerID uint, plate string) *models.Vehicle {
	t.Helper()
	v := &models.Vehicle{
		OwnerProfileID: ownerID,
		Plate:          plate,
		VehicleType:    models.VehicleTypeEV,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}

// callerFor 从账户构造调用者上下文
func callerFor(p *models.Profile, editMode bool) *CallerContext {
	return &CallerContext{
		ProfileID: p.ID,
		Role:      p.Role,
		ComplexID: p.ComplexID,
		Email:     p.Email,
		EditMode:  editMode,
	}
}

// fakeEmailService 记录外发邮件的测试替身
type fakeEmailService struct {
	inviteErr  error
	inviteSent []string
	alertSent  []string
}

func (f *fakeEmailService) SendInviteEmail(to, token string) error {
	if f.inviteErr != nil {
		return f.inviteErr
	}
	f.inviteSent = append(f.inviteSent, to)
	return nil
}

func (f *fakeEmailService) SendScanAlert(to, plate, location string) error {
	f.alertSent = append(f.alertSent, to)
	return nil
}
