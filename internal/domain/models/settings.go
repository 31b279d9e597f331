package models

// Settings 表示小区级配置，当前承载按角色组的菜单功能开关
type Settings struct {
	BaseModel
	ComplexID   uint        `gorm:"uniqueIndex;not null" json:"complex_id"`
	MenuToggles MenuToggles `gorm:"type:text" json:"menu_toggles"`
}
