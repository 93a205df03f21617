package idgen

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// ============================================================================
// 雪花算法 ID 生成器
// ============================================================================
//
// 兑换单号 / 事件键要求：全局唯一、趋势递增、高并发下可用、不暴露业务量。
//
// 64位结构：0 - 41位毫秒时间戳 - 10位机器ID - 12位序列号
//
// ============================================================================

const (
	epoch          = int64(1704067200000) // 起始时间戳（2024-01-01 00:00:00 UTC）
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

// Snowflake 雪花算法ID生成器
type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

var defaultGenerator *Snowflake

// Init 初始化默认ID生成器，进程启动时显式调用一次
func Init(workerID int64) {
	if workerID < 0 || workerID > maxWorkerID {
		log.Fatalf("workerID 必须在 0-%d 之间", maxWorkerID)
	}
	defaultGenerator = &Snowflake{workerID: workerID}
}

// NextID 生成下一个ID，要求已经 Init
func NextID() int64 {
	return defaultGenerator.Generate()
}

// Generate 生成ID
func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		// 同一毫秒内序列号递增，用完则等待下一毫秒
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// GenerateRedemptionID 生成兑换单号
// 格式：RED + 年月日时分秒 + 雪花ID后8位，例如 RED2025041510305212345678
func GenerateRedemptionID() string {
	id := NextID()
	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("RED%s%08d", timestamp, id%100000000)
}

// GenerateEventKey 生成发件箱事件键
func GenerateEventKey() string {
	id := NextID()
	timestamp := time.Now().Format("20060102150405")
	return fmt.Sprintf("EVT%s%08d", timestamp, id%100000000)
}
