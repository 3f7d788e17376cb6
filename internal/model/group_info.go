package model

import (
	"gorm.io/gorm"
)

// GroupType 协作单元类型
type GroupType string

const (
	GroupTypeProject      GroupType = "project"
	GroupTypeSociety      GroupType = "society"
	GroupTypeConference   GroupType = "conference"
	GroupTypeOrganization GroupType = "organization"
)

// GroupInfo 协作单元（项目、小组、会议、组织），拥有内容与成员名册
type GroupInfo struct {
	gorm.Model
	PortalID uint      `gorm:"column:portal_id;index;not null;comment:所属门户"`
	Name     string    `gorm:"column:name;type:varchar(100);not null;comment:群组名称"`
	Slug     string    `gorm:"column:slug;type:varchar(50);index;not null;comment:群组标识"`
	Type     GroupType `gorm:"column:type;type:varchar(20);not null;default:society;comment:群组类型"`
	Public   bool      `gorm:"column:public;default:false;comment:是否公开"`
}

func (GroupInfo) TableName() string {
	return "group_info"
}

// GroupRelation 群组之间的关联，始终成对存储 (a,b) 与 (b,a)
type GroupRelation struct {
	ID          uint `gorm:"primarykey"`
	FromGroupID uint `gorm:"column:from_group_id;not null;uniqueIndex:uk_group_relation_pair;comment:起点群组"`
	ToGroupID   uint `gorm:"column:to_group_id;not null;uniqueIndex:uk_group_relation_pair;index;comment:终点群组"`
}

func (GroupRelation) TableName() string {
	return "group_relation"
}
