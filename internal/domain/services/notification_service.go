package services

import (
	"errors"

	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/infrastructure/config"
)

// InterfaceNotificationService 定义通知服务接口
type InterfaceNotificationService interface {
	ComputeAdminAudience(tx *gorm.DB, complexID uint, exclude ...uint) ([]models.Profile, error)
	Notify(tx *gorm.DB, profileID uint, typ models.NotificationType, payload models.JSONMap) error
	NotifyMany(tx *gorm.DB, recipients []models.Profile, typ models.NotificationType, payload models.JSONMap) error
	ListByProfile(profileID uint, page, pageSize int) ([]models.Notification, int64, error)
	MarkRead(profileID, notificationID uint) error
}

// NotificationService 提供事件通知的受众计算与写入
type NotificationService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewNotificationService 创建一个新的通知服务
func NewNotificationService(db *gorm.DB, cfg *config.Config) InterfaceNotificationService {
	return &NotificationService{
		DB:     db,
		Config: cfg,
	}
}

// 1 ComputeAdminAudience 计算管理员受众：
// 指定小区内的MAIN/SUB，加上全部SUPER（不限租户），按ID去重并剔除排除名单。
// 受众计算是幂等的，重叠的管理员/超管集合不会产生重复收件人。
func (s *NotificationService) ComputeAdminAudience(tx *gorm.DB, complexID uint, exclude ...uint) ([]models.Profile, error) {
	if tx == nil {
		tx = s.DB
	}

	var admins []models.Profile
	if complexID != 0 {
		if err := tx.Where("role IN ? AND complex_id = ?",
			[]models.Role{models.RoleMain, models.RoleSub}, complexID).
			Find(&admins).Error; err != nil {
			return nil, err
		}
	}

	var supers []models.Profile
	if err := tx.Where("role = ?", models.RoleSuper).Find(&supers).Error; err != nil {
		return nil, err
	}

	excluded := make(map[uint]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	seen := make(map[uint]bool)
	audience := make([]models.Profile, 0, len(admins)+len(supers))
	for _, p := range append(admins, supers...) {
		if excluded[p.ID] || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		audience = append(audience, p)
	}
	return audience, nil
}

// 2 Notify 向单个账户写入一条通知
func (s *NotificationService) Notify(tx *gorm.DB, profileID uint, typ models.NotificationType, payload models.JSONMap) error {
	if tx == nil {
		tx = s.DB
	}
	notification := models.Notification{
		ProfileID: profileID,
		Type:      typ,
		Payload:   payload,
	}
	return tx.Create(&notification).Error
}

// 3 NotifyMany 向每个收件人各写入一条通知
func (s *NotificationService) NotifyMany(tx *gorm.DB, recipients []models.Profile, typ models.NotificationType, payload models.JSONMap) error {
	if tx == nil {
		tx = s.DB
	}
	for _, p := range recipients {
		notification := models.Notification{
			ProfileID: p.ID,
			Type:      typ,
			Payload:   payload,
		}
		if err := tx.Create(&notification).Error; err != nil {
			return err
		}
	}
	return nil
}

// 4 ListByProfile 分页获取账户的通知列表，新者在前
func (s *NotificationService) ListByProfile(profileID uint, page, pageSize int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64
	if err := s.DB.Model(&models.Notification{}).Where("profile_id = ?", profileID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.DB.Where("profile_id = ?", profileID).
		Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// 5 MarkRead 将通知标记为已读，只允许收件人本人操作
func (s *NotificationService) MarkRead(profileID, notificationID uint) error {
	var notification models.Notification
	if err := s.DB.Where("id = ? AND profile_id = ?", notificationID, profileID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code.New(code.ErrNotificationNotFound)
		}
		return err
	}
	return s.DB.Model(&notification).Update("is_read", true).Error
}
