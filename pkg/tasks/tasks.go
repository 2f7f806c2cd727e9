// Package tasks defines the structures for messages that are sent to Kafka.
package tasks

import "time"

// DocumentIngestTask represents the data structure for a document ingestion job.
type DocumentIngestTask struct {
	FileMD5    string `json:"file_md5"`
	ObjectName string `json:"object_name"`
	FileName   string `json:"file_name"`
	TotalSize  int64  `json:"total_size"`
	UserID     uint   `json:"user_id"`
}

// CreditEvent 是积分变动后尽力而为发出的事件，仅用于下游通知，
// 发送失败不影响主流程。
type CreditEvent struct {
	UserID    uint      `json:"user_id"`
	SourceID  string    `json:"source_id"`
	Points    int       `json:"points"`
	Balance   int       `json:"balance"`
	EmittedAt time.Time `json:"emitted_at"`
}
