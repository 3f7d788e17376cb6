// Package model 定义数据库实体模型
package model

import "gorm.io/gorm"

// Portal 门户（租户），所有成员关系与内容数据都归属于某个门户
type Portal struct {
	gorm.Model
	Name string `gorm:"column:name;type:varchar(100);not null;comment:门户名称"`
	Slug string `gorm:"column:slug;uniqueIndex;type:varchar(50);not null;comment:门户标识"`
}

func (Portal) TableName() string {
	return "portal"
}
