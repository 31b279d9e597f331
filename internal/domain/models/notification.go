package models

// NotificationType 表示通知类型
type NotificationType string

const (
	NotificationTypeScan          NotificationType = "scan"
	NotificationTypeProfileUpdate NotificationType = "profile_update"
	NotificationTypeQRRequest     NotificationType = "qr_request"
)

// Notification 表示发给单个账户的通知，载荷为触发事件的JSON快照
type Notification struct {
	BaseModel
	ProfileID uint             `gorm:"index;not null" json:"profile_id"`
	Type      NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Payload   JSONMap          `gorm:"type:text" json:"payload"`
	IsRead    bool             `gorm:"default:false" json:"is_read"`
}
