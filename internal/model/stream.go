package model

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Stream 持久化的动态流定义
// 列表字段以逗号拼接存储，为空表示不过滤
type Stream struct {
	gorm.Model
	UserID          uint       `gorm:"column:user_id;index;not null;comment:所属用户"`
	Title           string     `gorm:"column:title;type:varchar(100);not null;comment:标题"`
	Slug            string     `gorm:"column:slug;type:varchar(50);index;not null;comment:标识"`
	IsMyStream      bool       `gorm:"column:is_my_stream;default:false;comment:是否只看我的群组"`
	IsSpecial       bool       `gorm:"column:is_special;default:false;comment:是否为系统创建的特殊流"`
	PortalIDs       string     `gorm:"column:portal_ids;type:varchar(255);default:'';comment:门户范围"`
	GroupID         *uint      `gorm:"column:group_id;comment:限定群组"`
	SpecialGroupIDs string     `gorm:"column:special_group_ids;type:varchar(255);default:'';comment:限定群组列表"`
	Models          string     `gorm:"column:models;type:varchar(255);default:'';comment:内容类型"`
	TagIDs          string     `gorm:"column:tag_ids;type:varchar(255);default:'';comment:标签"`
	TopicIDs        string     `gorm:"column:topic_ids;type:varchar(255);default:'';comment:话题"`
	PersonIDs       string     `gorm:"column:person_ids;type:varchar(255);default:'';comment:人员"`
	Latitude        *float64   `gorm:"column:latitude;comment:纬度"`
	Longitude       *float64   `gorm:"column:longitude;comment:经度"`
	IsPublic        bool       `gorm:"column:is_public;default:false;comment:是否包含公开内容"`
	LastSeen        *time.Time `gorm:"column:last_seen;comment:最近查看时间"`
}

func (Stream) TableName() string {
	return "stream"
}

// SplitIDs 解析逗号拼接的编号，非法片段会被丢弃并在第二个返回值中报告
func SplitIDs(raw string) ([]uint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	ok := true
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil || n == 0 {
			ok = false
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids, ok
}

// JoinIDs 将编号拼接为逗号字符串
func JoinIDs(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}

// SplitNames 解析逗号拼接的名称列表
func SplitNames(raw string) []string {
	var names []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
