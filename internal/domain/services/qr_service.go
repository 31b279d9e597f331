package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/infrastructure/config"
	"parkqr-http-service/pkg/logger"
	"parkqr-http-service/utils"
)

// QRRequestType 自助QR请求类型
type QRRequestType string

const (
	QRRequestReissue QRRequestType = "REISSUE"
	QRRequestExtra   QRRequestType = "EXTRA_REQUEST"
)

// InterfaceQRService 定义QR签发与状态服务接口
type InterfaceQRService interface {
	Reissue(caller *CallerContext) (*models.QR, error)
	ExtraIssue(caller *CallerContext) (*models.QR, error)
	Approve(caller *CallerContext, qrID uint) (*models.QR, error)
	Request(caller *CallerContext, requestType QRRequestType) (*models.QR, error)
	DisplayURL(qr *models.QR) string
}

// QRService 管理车辆QR身份的签发、补发与审批
type QRService struct {
	DB                  *gorm.DB
	Config              *config.Config
	NotificationService InterfaceNotificationService
}

// NewQRService 创建一个新的QR服务
func NewQRService(db *gorm.DB, cfg *config.Config, notificationService InterfaceNotificationService) InterfaceQRService {
	return &QRService{
		DB:                  db,
		Config:              cfg,
		NotificationService: notificationService,
	}
}

// 1 Reissue 补发：停用车辆现有全部QR，再签发一枚新的ACTIVE QR
func (s *QRService) Reissue(caller *CallerContext) (*models.QR, error) {
	if caller == nil || caller.ProfileID == 0 {
		return nil, code.New(code.ErrUnauthenticated)
	}

	var qr *models.QR
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		vehicle, err := s.lockCallerVehicle(tx, caller.ProfileID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.QR{}).
			Where("vehicle_id = ?", vehicle.ID).
			Update("status", models.QRStatusInactive).Error; err != nil {
			return err
		}
		fresh := models.QR{
			VehicleID: vehicle.ID,
			Code:      utils.SecureToken(inviteTokenBytes),
			Status:    models.QRStatusActive,
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		// 补发后清理多余的历史行，保持单车不超过上限
		if err := s.trimToQuota(tx, vehicle.ID, fresh.ID); err != nil {
			return err
		}
		qr = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return qr, nil
}

// 2 ExtraIssue 在未达上限的前提下为车辆追加一枚ACTIVE QR。
// 事务内先对车辆行加锁（自增 qr_issue_seq），再计数、插入，
// 并发调用下计数与插入是原子的，上限不会被突破。
func (s *QRService) ExtraIssue(caller *CallerContext) (*models.QR, error) {
	if caller == nil || caller.ProfileID == 0 {
		return nil, code.New(code.ErrUnauthenticated)
	}

	var qr *models.QR
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		vehicle, err := s.lockCallerVehicle(tx, caller.ProfileID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.QR{}).Where("vehicle_id = ?", vehicle.ID).Count(&count).Error; err != nil {
			return err
		}
		if count >= models.MaxQRPerVehicle {
			return code.New(code.ErrQRQuotaExceeded)
		}

		fresh := models.QR{
			VehicleID: vehicle.ID,
			Code:      utils.SecureToken(inviteTokenBytes),
			Status:    models.QRStatusActive,
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		qr = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return qr, nil
}

// 3 Approve 管理员审批：INACTIVE→ACTIVE，先校验QR所属车辆车主在管理员范围内
func (s *QRService) Approve(caller *CallerContext, qrID uint) (*models.QR, error) {
	if err := caller.RequireAdminRole(); err != nil {
		return nil, err
	}
	if err := caller.RequireEditMode(); err != nil {
		return nil, err
	}

	var qr models.QR
	if err := s.DB.First(&qr, qrID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.New(code.ErrQRNotFound)
		}
		return nil, err
	}

	var vehicle models.Vehicle
	if err := s.DB.First(&vehicle, qr.VehicleID).Error; err != nil {
		return nil, err
	}
	var owner models.Profile
	if err := s.DB.First(&owner, vehicle.OwnerProfileID).Error; err != nil {
		return nil, err
	}
	if err := caller.RequireComplexScope(owner.ComplexID); err != nil {
		return nil, err
	}

	if err := s.DB.Model(&qr).Update("status", models.QRStatusActive).Error; err != nil {
		return nil, err
	}
	qr.Status = models.QRStatusActive
	return &qr, nil
}

// 4 Request 自助QR请求：执行对应的签发动作，并向小区管理员与超管广播 qr_request 通知
func (s *QRService) Request(caller *CallerContext, requestType QRRequestType) (*models.QR, error) {
	var qr *models.QR
	var err error
	switch requestType {
	case QRRequestReissue:
		qr, err = s.Reissue(caller)
	case QRRequestExtra:
		qr, err = s.ExtraIssue(caller)
	default:
		return nil, code.NewWithMessage(code.ErrValidation, fmt.Sprintf("不支持的请求类型: %s", requestType))
	}
	if err != nil {
		return nil, err
	}

	audience, err := s.NotificationService.ComputeAdminAudience(s.DB, caller.ComplexID, caller.ProfileID)
	if err != nil {
		logger.Warning("计算QR请求通知受众失败: %v", err)
		return qr, nil
	}
	payload := models.JSONMap{
		"profile_id":   caller.ProfileID,
		"email":        caller.Email,
		"request_type": string(requestType),
		"qr_id":        qr.ID,
	}
	if err := s.NotificationService.NotifyMany(s.DB, audience, models.NotificationTypeQRRequest, payload); err != nil {
		logger.Warning("写入QR请求通知失败: %v", err)
	}
	return qr, nil
}

// 5 DisplayURL 生成展示链接，code 是唯一的秘密
func (s *QRService) DisplayURL(qr *models.QR) string {
	return fmt.Sprintf("%s/q/%s", s.Config.QROrigin, qr.Code)
}

// lockCallerVehicle 取调用者名下的车辆并锁定其行：
// 自增 qr_issue_seq 在 MySQL 与 sqlite 上都会串行化同一车辆的签发事务
func (s *QRService) lockCallerVehicle(tx *gorm.DB, profileID uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := tx.Where("owner_profile_id = ?", profileID).First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.New(code.ErrNoVehicle)
		}
		return nil, err
	}
	if err := tx.Model(&models.Vehicle{}).
		Where("id = ?", vehicle.ID).
		Update("qr_issue_seq", gorm.Expr("qr_issue_seq + 1")).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// trimToQuota 删除超出上限的最老INACTIVE行，保留指定的新行
func (s *QRService) trimToQuota(tx *gorm.DB, vehicleID, keepID uint) error {
	var count int64
	if err := tx.Model(&models.QR{}).Where("vehicle_id = ?", vehicleID).Count(&count).Error; err != nil {
		return err
	}
	if count <= models.MaxQRPerVehicle {
		return nil
	}
	var stale []models.QR
	if err := tx.Where("vehicle_id = ? AND id <> ? AND status = ?",
		vehicleID, keepID, models.QRStatusInactive).
		Order("id ASC").
		Limit(int(count - models.MaxQRPerVehicle)).
		Find(&stale).Error; err != nil {
		return err
	}
	for _, q := range stale {
		if err := tx.Delete(&q).Error; err != nil {
			return err
		}
	}
	return nil
}
