package model

// 内容类型名称，与 content_tag / content_person 表中的 content_kind 一致
const (
	KindEvent = "event"
	KindFile  = "file"
	KindNote  = "note"
	KindTodo  = "todo"
	KindPoll  = "poll"
)

// ContentKind 内容类型的表名与动态流排序列
// SortColumn 必须与模型 StreamSortKey 返回的字段一致
type ContentKind struct {
	Name       string
	Table      string
	SortColumn string
}

var contentKinds = []ContentKind{
	{Name: KindEvent, Table: Event{}.TableName(), SortColumn: "created_at"},
	{Name: KindFile, Table: FileEntry{}.TableName(), SortColumn: "created_at"},
	{Name: KindNote, Table: Note{}.TableName(), SortColumn: "last_action"},
	{Name: KindTodo, Table: TodoEntry{}.TableName(), SortColumn: "created_at"},
	{Name: KindPoll, Table: Poll{}.TableName(), SortColumn: "created_at"},
}

// ContentKinds 全部可进入动态流的内容类型
func ContentKinds() []ContentKind {
	return append([]ContentKind(nil), contentKinds...)
}

// LookupContentKind 按名称查找内容类型
func LookupContentKind(name string) (ContentKind, bool) {
	for _, k := range contentKinds {
		if k.Name == name {
			return k, true
		}
	}
	return ContentKind{}, false
}
