package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONMap 以TEXT列存储的JSON对象，用于通知载荷等快照数据
type JSONMap map[string]interface{}

// Value 实现driver.Valuer接口
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现sql.Scanner接口
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("JSONMap: 不支持的列类型")
	}

	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// MenuToggles 按角色组存储的功能开关映射：组 -> 功能键 -> 是否启用
type MenuToggles map[string]map[string]bool

// Value 实现driver.Valuer接口
func (t MenuToggles) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现sql.Scanner接口
func (t *MenuToggles) Scan(value interface{}) error {
	if value == nil {
		*t = MenuToggles{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("MenuToggles: 不支持的列类型")
	}

	if len(data) == 0 {
		*t = MenuToggles{}
		return nil
	}
	return json.Unmarshal(data, t)
}
