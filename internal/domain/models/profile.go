package models

import (
	"gorm.io/gorm"

	"parkqr-http-service/utils"
)

// Role 表示账户角色，管理权限构成严格层级
type Role string

const (
	RoleSuper    Role = "SUPER"    // 超级管理员，不受租户范围限制
	RoleMain     Role = "MAIN"     // 小区主管理员
	RoleSub      Role = "SUB"      // 楼栋副管理员
	RoleGuard    Role = "GUARD"    // 保安/巡查员
	RoleResident Role = "RESIDENT" // 住户
)

// IsAdmin 判断角色是否属于管理员集合 {SUPER, MAIN, SUB}
func (r Role) IsAdmin() bool {
	switch r {
	case RoleSuper, RoleMain, RoleSub:
		return true
	default:
		return false
	}
}

// IsValid 判断角色是否为已知角色
func (r Role) IsValid() bool {
	switch r {
	case RoleSuper, RoleMain, RoleSub, RoleGuard, RoleResident:
		return true
	default:
		return false
	}
}

// MenuGroup 返回角色对应的菜单开关分组
func (r Role) MenuGroup() string {
	switch r {
	case RoleMain:
		return "main"
	case RoleSub:
		return "sub"
	case RoleGuard:
		return "guard"
	case RoleResident:
		return "resident"
	default:
		return ""
	}
}

// Profile 表示一个账户：身份、角色与租户范围
type Profile struct {
	BaseModel
	Email      string `gorm:"type:varchar(100);unique;not null" json:"email"`
	Password   string `gorm:"type:varchar(100);not null" json:"-"` // 不在JSON中暴露密码
	Name       string `gorm:"type:varchar(50)" json:"name"`
	Phone      string `gorm:"type:varchar(20)" json:"phone"` // 旧版单一电话字段，优先使用ProfilePhone主号码
	Role       Role   `gorm:"type:varchar(20);not null" json:"role"`
	ComplexID  uint   `gorm:"index" json:"complex_id"`
	BuildingID *uint  `json:"building_id,omitempty"`
	UnitID     *uint  `json:"unit_id,omitempty"`
	HasVehicle bool   `gorm:"default:false" json:"has_vehicle"`
	Status     string `gorm:"type:varchar(20);default:'active'" json:"status"` // 状态：active, inactive

	// Relations - 关联关系
	Vehicles      []Vehicle      `gorm:"foreignKey:OwnerProfileID" json:"vehicles,omitempty"`
	Phones        []ProfilePhone `gorm:"foreignKey:ProfileID" json:"phones,omitempty"`
	Notifications []Notification `gorm:"foreignKey:ProfileID" json:"notifications,omitempty"`
}

// PrimaryPhone 返回有效联系电话：优先取主号码记录，其次旧版电话字段
func (p *Profile) PrimaryPhone() string {
	for _, ph := range p.Phones {
		if ph.IsPrimary {
			return ph.Number
		}
	}
	return p.Phone
}

// BeforeCreate 是一个GORM钩子，在创建新记录前运行
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	// 如果提供了密码，对其进行哈希处理
	if p.Password != "" && len(p.Password) < 60 {
		hashedPassword, err := utils.HashPassword(p.Password)
		if err != nil {
			return err
		}
		p.Password = hashedPassword
	}
	return nil
}

// ProfilePhone 表示账户的联系电话记录
type ProfilePhone struct {
	BaseModel
	ProfileID uint   `gorm:"index;not null" json:"profile_id"`
	Number    string `gorm:"type:varchar(20);not null" json:"number"`
	IsPrimary bool   `gorm:"default:false" json:"is_primary"`
}
