package services

import (
	"errors"

	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/infrastructure/config"
	"parkqr-http-service/pkg/logger"
	"parkqr-http-service/utils"
)

// UpdateProfileRequest 自助资料更新请求
type UpdateProfileRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	HasVehicle  *bool  `json:"has_vehicle"`
	Plate       string `json:"plate"`
	VehicleType string `json:"vehicle_type"`
}

// InterfaceProfileService 定义账户服务接口
type InterfaceProfileService interface {
	GetByID(id uint) (*models.Profile, error)
	UpdateSelf(caller *CallerContext, req UpdateProfileRequest) (*models.Profile, error)
	ListByScope(caller *CallerContext, pagination *models.PaginationQuery) ([]models.Profile, int64, error)
	Delete(caller *CallerContext, profileID uint) error
}

// ProfileService 管理账户的读取、自助更新与删除
type ProfileService struct {
	DB                  *gorm.DB
	Config              *config.Config
	NotificationService InterfaceNotificationService
}

// NewProfileService 创建一个新的账户服务
func NewProfileService(db *gorm.DB, cfg *config.Config, notificationService InterfaceNotificationService) InterfaceProfileService {
	return &ProfileService{
		DB:                  db,
		Config:              cfg,
		NotificationService: notificationService,
	}
}

// 1 GetByID 按ID获取账户（含车辆与电话）
func (s *ProfileService) GetByID(id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := s.DB.Preload("Vehicles").Preload("Phones").First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.New(code.ErrProfileNotFound)
		}
		return nil, err
	}
	return &profile, nil
}

// 2 UpdateSelf 自助更新资料，并向小区管理员与超管广播 profile_update 通知。
// 声明车辆且名下尚无车辆时创建一辆，已有车辆则不会创建第二辆。
func (s *ProfileService) UpdateSelf(caller *CallerContext, req UpdateProfileRequest) (*models.Profile, error) {
	if caller == nil || caller.ProfileID == 0 {
		return nil, code.New(code.ErrUnauthenticated)
	}

	var profile models.Profile
	if err := s.DB.First(&profile, caller.ProfileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.New(code.ErrProfileNotFound)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Password != "" {
		if len(req.Password) < MinPasswordLength {
			return nil, code.NewWithMessage(code.ErrValidation, "密码长度不足")
		}
		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&profile).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.HasVehicle != nil && *req.HasVehicle {
			var count int64
			if err := tx.Model(&models.Vehicle{}).
				Where("owner_profile_id = ?", profile.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				if req.Plate == "" || !models.VehicleType(req.VehicleType).IsValid() {
					return code.NewWithMessage(code.ErrValidation, "声明车辆时必须提供车牌和车辆类型")
				}
				vehicle := models.Vehicle{
					OwnerProfileID: profile.ID,
					Plate:          req.Plate,
					VehicleType:    models.VehicleType(req.VehicleType),
				}
				if err := tx.Create(&vehicle).Error; err != nil {
					return err
				}
				if err := tx.Model(&profile).Update("has_vehicle", true).Error; err != nil {
					return err
				}
			}
		}

		audience, err := s.NotificationService.ComputeAdminAudience(tx, profile.ComplexID, profile.ID)
		if err != nil {
			return err
		}
		payload := models.JSONMap{
			"profile_id": profile.ID,
			"email":      profile.Email,
		}
		return s.NotificationService.NotifyMany(tx, audience, models.NotificationTypeProfileUpdate, payload)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(profile.ID)
}

// 3 ListByScope 管理员按范围列出账户，SUPER不限小区
func (s *ProfileService) ListByScope(caller *CallerContext, pagination *models.PaginationQuery) ([]models.Profile, int64, error) {
	if err := caller.RequireAdminRole(); err != nil {
		return nil, 0, err
	}

	query := s.DB.Model(&models.Profile{})
	if caller.Role != models.RoleSuper {
		query = query.Where("complex_id = ?", caller.ComplexID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []models.Profile
	if err := query.Order("id DESC").
		Offset((pagination.PageNum - 1) * pagination.PageSize).
		Limit(pagination.PageSize).
		Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// 4 Delete 删除账户，级联删除名下车辆及其QR
func (s *ProfileService) Delete(caller *CallerContext, profileID uint) error {
	if err := caller.RequireAdminRole(); err != nil {
		return err
	}
	if err := caller.RequireEditMode(); err != nil {
		return err
	}

	var profile models.Profile
	if err := s.DB.First(&profile, profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code.New(code.ErrProfileNotFound)
		}
		return err
	}
	if err := caller.RequireComplexScope(profile.ComplexID); err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var vehicles []models.Vehicle
		if err := tx.Where("owner_profile_id = ?", profile.ID).Find(&vehicles).Error; err != nil {
			return err
		}
		for _, v := range vehicles {
			if err := tx.Where("vehicle_id = ?", v.ID).Delete(&models.QR{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&v).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("profile_id = ?", profile.ID).Delete(&models.ProfilePhone{}).Error; err != nil {
			return err
		}
		if err := tx.Where("profile_id = ?", profile.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&profile).Error; err != nil {
			return err
		}
		logger.Info("账户已删除 id=%d email=%s", profile.ID, profile.Email)
		return nil
	})
}
