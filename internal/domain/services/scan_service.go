package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/infrastructure/config"
	"parkqr-http-service/pkg/logger"
)

// ScanRequest 扫码请求，值守与无人值守两个入口共用
type ScanRequest struct {
	Code          string   `json:"code" binding:"required"`
	LocationLabel string   `json:"location_label"`
	LocationLat   *float64 `json:"location_lat"`
	LocationLng   *float64 `json:"location_lng"`
	VehiclePlate  string   `json:"vehicle_plate"`
}

// ResidentContact 扫码解析出的业主联系方式，只返回与本次扫码相关的业主
type ResidentContact struct {
	ProfileID uint   `json:"profile_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

// ScanResolution 扫码结果
type ScanResolution struct {
	Result   models.ScanResult `json:"result"`
	Plate    string            `json:"plate"`
	ScanID   uint              `json:"scan_id"`
	Resident *ResidentContact  `json:"resident,omitempty"`
}

// InterfaceScanService 定义扫码解析服务接口
type InterfaceScanService interface {
	ResolveAttended(caller *CallerContext, req ScanRequest) (*ScanResolution, error)
	ResolvePublic(req ScanRequest) (*ScanResolution, error)
}

// ScanService 对扫描到的QR码进行分类、落库并触发通知扇出
type ScanService struct {
	DB                  *gorm.DB
	Config              *config.Config
	NotificationService InterfaceNotificationService
	MenuService         InterfaceMenuService
	EmailService        InterfaceEmailService
	MQTTService         InterfaceMQTTService
}

// NewScanService 创建一个新的扫码服务
func NewScanService(db *gorm.DB, cfg *config.Config,
	notificationService InterfaceNotificationService,
	menuService InterfaceMenuService,
	emailService InterfaceEmailService,
	mqttService InterfaceMQTTService) InterfaceScanService {
	return &ScanService{
		DB:                  db,
		Config:              cfg,
		NotificationService: notificationService,
		MenuService:         menuService,
		EmailService:        emailService,
		MQTTService:         mqttService,
	}
}

// 1 ResolveAttended 值守扫码：需要已认证的调用者与非空位置说明，
// GUARD组受 parking.scans 功能开关约束
func (s *ScanService) ResolveAttended(caller *CallerContext, req ScanRequest) (*ScanResolution, error) {
	if caller == nil || caller.ProfileID == 0 {
		return nil, code.New(code.ErrUnauthenticated)
	}
	if !caller.Role.IsValid() {
		return nil, code.New(code.ErrForbidden)
	}
	if strings.TrimSpace(req.LocationLabel) == "" {
		return nil, code.New(code.ErrScanLocationRequired)
	}
	if caller.Role == models.RoleGuard {
		if err := s.MenuService.RequireMenuToggle(caller, models.RoleGuard.MenuGroup(), MenuKeyParkingScans); err != nil {
			return nil, err
		}
	}
	return s.resolve(caller, req)
}

// 2 ResolvePublic 无人值守扫码：无需认证，位置为尽力提供
func (s *ScanService) ResolvePublic(req ScanRequest) (*ScanResolution, error) {
	return s.resolve(nil, req)
}

// resolve 分类、落库与扇出的共同内核。
// Scan行与通知在同一事务内写入：通知绝不会先于扫码记录存在。
// 邮件与MQTT发布在事务之外，尽力而为。
func (s *ScanService) resolve(caller *CallerContext, req ScanRequest) (*ScanResolution, error) {
	codeValue := ExtractScanCode(req.Code)
	if codeValue == "" {
		return nil, code.NewWithMessage(code.ErrValidation, "扫码内容为空")
	}

	// 查找QR：找到且ACTIVE则为业主车辆，否则按执法对象处理
	var qr models.QR
	var qrID *uint
	result := models.ScanResultEnforcement
	err := s.DB.Where("code = ?", codeValue).First(&qr).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		qrID = &qr.ID
		if qr.Status == models.QRStatusActive {
			result = models.ScanResultResident
		}
	}

	// 解析车辆与业主，得到车牌与联系方式
	plate := req.VehiclePlate
	var owner *models.Profile
	if qrID != nil {
		var vehicle models.Vehicle
		if err := s.DB.First(&vehicle, qr.VehicleID).Error; err == nil {
			if plate == "" {
				plate = vehicle.Plate
			}
			var profile models.Profile
			if err := s.DB.Preload("Phones").First(&profile, vehicle.OwnerProfileID).Error; err == nil {
				owner = &profile
			}
		}
	}

	// 租户归属：优先取值守人员的小区，其次业主的小区
	var complexID uint
	var guardID *uint
	if caller != nil && caller.ProfileID != 0 {
		complexID = caller.ComplexID
		id := caller.ProfileID
		guardID = &id
	} else if owner != nil {
		complexID = owner.ComplexID
	}

	scan := models.Scan{
		QRID:          qrID,
		GuardID:       guardID,
		ComplexID:     complexID,
		LocationLabel: req.LocationLabel,
		LocationLat:   req.LocationLat,
		LocationLng:   req.LocationLng,
		Result:        result,
		Plate:         plate,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&scan).Error; err != nil {
			return err
		}

		payload := models.JSONMap{
			"scan_id":        scan.ID,
			"result":         string(result),
			"plate":          plate,
			"location_label": req.LocationLabel,
		}

		if owner != nil {
			if err := s.NotificationService.Notify(tx, owner.ID, models.NotificationTypeScan, payload); err != nil {
				return err
			}
		}

		var exclude []uint
		if guardID != nil {
			exclude = append(exclude, *guardID)
		}
		audience, err := s.NotificationService.ComputeAdminAudience(tx, complexID, exclude...)
		if err != nil {
			return err
		}
		return s.NotificationService.NotifyMany(tx, audience, models.NotificationTypeScan, payload)
	})
	if err != nil {
		return nil, err
	}

	resolution := &ScanResolution{
		Result: result,
		Plate:  plate,
		ScanID: scan.ID,
	}
	if owner != nil {
		resolution.Resident = &ResidentContact{
			ProfileID: owner.ID,
			Email:     owner.Email,
			Name:      owner.Name,
			Phone:     owner.PrimaryPhone(),
		}
		if err := s.EmailService.SendScanAlert(owner.Email, plate, req.LocationLabel); err != nil {
			logger.Warning("扫码提醒邮件发送失败 profile=%d: %v", owner.ID, err)
		}
	}

	if s.MQTTService != nil && complexID != 0 {
		if err := s.MQTTService.PublishScanEvent(complexID, resolution); err != nil {
			logger.Warning("扫码事件MQTT发布失败 complex=%d: %v", complexID, err)
		}
	}
	return resolution, nil
}

// ExtractScanCode 从原始扫描内容中提取code：支持裸code与 .../q/{code} 形式的URL
func ExtractScanCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.LastIndex(raw, "/q/"); idx >= 0 {
		raw = raw[idx+len("/q/"):]
	}
	return strings.Trim(raw, "/")
}
