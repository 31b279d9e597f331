package models

import "time"

// InviteStatus 表示邀请状态，状态单调推进：ACCEPTED与EXPIRED为终态
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusSent     InviteStatus = "SENT"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
)

// InviteTTL 邀请有效期：参考时间超过24小时即失效
const InviteTTL = 24 * time.Hour

// Invite 表示一张待接受的入驻邀请
type Invite struct {
	BaseModel
	Email      string       `gorm:"type:varchar(100);not null" json:"email"`
	Role       Role         `gorm:"type:varchar(20);not null" json:"role"`
	ComplexID  uint         `gorm:"index;not null" json:"complex_id"`
	BuildingID *uint        `json:"building_id,omitempty"`
	UnitID     *uint        `json:"unit_id,omitempty"`
	Token      string       `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"` // 不可猜测的能力令牌，不在JSON中暴露
	Status     InviteStatus `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	SentAt     *time.Time   `json:"sent_at,omitempty"`
	AcceptedAt *time.Time   `json:"accepted_at,omitempty"`

	// 预申报的车辆意向
	HasVehicle  bool   `gorm:"default:false" json:"has_vehicle"`
	Plate       string `gorm:"type:varchar(20)" json:"plate,omitempty"`
	VehicleType string `gorm:"type:varchar(10)" json:"vehicle_type,omitempty"` // EV 或 ICE

	BatchID string `gorm:"type:varchar(36);index" json:"batch_id,omitempty"` // 批量创建分组ID
}

// ReferenceTime 返回过期判定的参考时间：已发送取SentAt，未发送取CreatedAt
func (i *Invite) ReferenceTime() time.Time {
	if i.SentAt != nil {
		return *i.SentAt
	}
	return i.CreatedAt
}

// IsExpired 按参考时间判定邀请是否已过期，时间判定优先于存储状态
func (i *Invite) IsExpired(now time.Time) bool {
	return now.Sub(i.ReferenceTime()) > InviteTTL
}
