package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseContent 所有可进入动态流的内容共有字段
type BaseContent struct {
	ID        uint           `gorm:"primarykey"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	PortalID  uint           `gorm:"column:portal_id;index;not null;comment:所属门户"`
	GroupID   uint           `gorm:"column:group_id;index;not null;comment:所属群组"`
	CreatorID uint           `gorm:"column:creator_id;index;not null;comment:创建者"`
	Title     string         `gorm:"column:title;type:varchar(255);not null;comment:标题"`
	Public    bool           `gorm:"column:public;index;default:false;comment:是否完全公开"`
	// Topics 逗号拼接的话题编号，如 "1,4,7"
	Topics    string   `gorm:"column:topics;type:varchar(255);default:'';comment:话题编号"`
	Latitude  *float64 `gorm:"column:latitude;comment:纬度"`
	Longitude *float64 `gorm:"column:longitude;comment:经度"`
}

// StreamID 内容主键
func (c *BaseContent) StreamID() uint {
	return c.ID
}

// StreamSortKey 默认以创建时间排序
func (c *BaseContent) StreamSortKey() time.Time {
	return c.CreatedAt
}

// Event 活动
type Event struct {
	BaseContent
	FromDate *time.Time `gorm:"column:from_date;comment:开始时间"`
	ToDate   *time.Time `gorm:"column:to_date;comment:结束时间"`
	State    int8       `gorm:"column:state;default:1;comment:1已安排 2投票中 3已取消"`
}

func (Event) TableName() string {
	return "event"
}

// FileEntry 文件或文件夹
type FileEntry struct {
	BaseContent
	Path        string `gorm:"column:path;type:varchar(255);comment:存储路径"`
	MimeType    string `gorm:"column:mime_type;type:varchar(100);comment:文件类型"`
	IsContainer bool   `gorm:"column:is_container;default:false;comment:是否为文件夹"`
}

func (FileEntry) TableName() string {
	return "file_entry"
}

// Note 笔记，被评论时刷新 LastAction，动态流按 LastAction 排序
type Note struct {
	BaseContent
	Text       string    `gorm:"column:text;type:TEXT;comment:正文"`
	LastAction time.Time `gorm:"column:last_action;index;comment:最近活动时间"`
}

func (Note) TableName() string {
	return "note"
}

// StreamSortKey 覆盖默认排序键
func (n *Note) StreamSortKey() time.Time {
	if n.LastAction.IsZero() {
		return n.CreatedAt
	}
	return n.LastAction
}

// BeforeCreate 新建笔记时最近活动时间即创建时间
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.LastAction.IsZero() {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		n.LastAction = n.CreatedAt
	}
	return nil
}

// TodoEntry 待办事项
type TodoEntry struct {
	BaseContent
	DueDate     *time.Time `gorm:"column:due_date;comment:截止时间"`
	IsCompleted bool       `gorm:"column:is_completed;default:false;comment:是否完成"`
}

func (TodoEntry) TableName() string {
	return "todo_entry"
}

// Poll 投票
type Poll struct {
	BaseContent
	State  int8 `gorm:"column:state;default:1;comment:1进行中 2已结束 3已归档"`
	Closed bool `gorm:"column:closed;default:false;comment:是否关闭"`
}

func (Poll) TableName() string {
	return "poll"
}

// ContentTag 内容标签关联
type ContentTag struct {
	ID          uint   `gorm:"primarykey"`
	ContentKind string `gorm:"column:content_kind;type:varchar(20);not null;index:idx_content_tag_object"`
	ObjectID    uint   `gorm:"column:object_id;not null;index:idx_content_tag_object"`
	TagID       uint   `gorm:"column:tag_id;not null;index"`
}

func (ContentTag) TableName() string {
	return "content_tag"
}

// ContentPerson 内容中被标记的人员
type ContentPerson struct {
	ID          uint   `gorm:"primarykey"`
	ContentKind string `gorm:"column:content_kind;type:varchar(20);not null;index:idx_content_person_object"`
	ObjectID    uint   `gorm:"column:object_id;not null;index:idx_content_person_object"`
	UserID      uint   `gorm:"column:user_id;not null;index"`
}

func (ContentPerson) TableName() string {
	return "content_person"
}
