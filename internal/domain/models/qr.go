package models

import "time"

// QRStatus 表示QR身份的状态
type QRStatus string

const (
	QRStatusActive   QRStatus = "ACTIVE"
	QRStatusInactive QRStatus = "INACTIVE" // 未审批或已停用
)

// MaxQRPerVehicle 每辆车最多持有的QR记录数
const MaxQRPerVehicle = 2

// QR 表示绑定到车辆的扫码身份，Code是唯一的秘密，按能力令牌对待
type QR struct {
	BaseModel
	VehicleID uint       `gorm:"index;not null" json:"vehicle_id"`
	Code      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Status    QRStatus   `gorm:"type:varchar(20);default:'INACTIVE'" json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Relations - 关联关系
	Vehicle *Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
}
