// Package snowflake 生成全局唯一的事件编号
package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	mu   sync.Mutex
	node *snowflake.Node
)

// Init 以指定机器编号初始化节点，重复调用以最后一次为准
// 编号超出 0-1023 时退回 1
func Init(machineID int64) {
	if machineID < 0 || machineID > 1023 {
		zap.L().Warn("invalid snowflake machine id, using 1", zap.Int64("machineID", machineID))
		machineID = 1
	}
	n, err := snowflake.NewNode(machineID)
	if err != nil {
		zap.L().Fatal("init snowflake node failed", zap.Error(err))
	}
	mu.Lock()
	node = n
	mu.Unlock()
	zap.L().Info("snowflake node initialized", zap.Int64("machineID", machineID))
}

func current() *snowflake.Node {
	mu.Lock()
	defer mu.Unlock()
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	return node
}

// GenerateID 生成雪花 ID
func GenerateID() int64 {
	return current().Generate().Int64()
}
