package model

import "time"

// 文档处理状态。0: 待处理, 1: 已完成, 2: 失败。
const (
	UploadStatusPending   = 0
	UploadStatusProcessed = 1
	UploadStatusFailed    = 2
)

// DocumentUpload 对应于数据库中的 'document_uploads' 表。
// 它记录了每个上传文件的元数据和摄取状态。
type DocumentUpload struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	FileMD5     string     `gorm:"type:varchar(32);not null;index;column:file_md5" json:"fileMd5"`
	FileName    string     `gorm:"type:varchar(255);not null;column:file_name" json:"fileName"`
	TotalSize   int64      `gorm:"not null;column:total_size" json:"totalSize"`
	Status      int        `gorm:"type:tinyint;not null;default:0" json:"status"`
	ChunkCount  int        `gorm:"not null;default:0;column:chunk_count" json:"chunkCount"`
	UserID      uint       `gorm:"not null;index" json:"userId"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	ProcessedAt *time.Time `gorm:"default:null;column:processed_at" json:"processedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentUpload) TableName() string {
	return "document_uploads"
}

// DocumentChunk 对应于数据库中的 'document_chunks' 表。
// 每个文本分块一行，向量本身只存于 Elasticsearch。
type DocumentChunk struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FileMD5      string `gorm:"type:varchar(32);not null;index;column:file_md5" json:"fileMd5"`
	ChunkID      int    `gorm:"not null;column:chunk_id" json:"chunkId"`
	TextContent  string `gorm:"type:text;column:text_content" json:"textContent"`
	ModelVersion string `gorm:"type:varchar(50);column:model_version" json:"modelVersion"`
	UserID       uint   `gorm:"not null" json:"userId"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentChunk) TableName() string {
	return "document_chunks"
}

// EsChunk 定义了存储在 Elasticsearch 中的分块文档结构。
type EsChunk struct {
	VectorID     string    `json:"vector_id"` // 唯一标识，fileMd5 + chunkId
	FileMD5      string    `json:"file_md5"`
	ChunkID      int       `json:"chunk_id"`
	TextContent  string    `json:"text_content"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
	UserID       uint      `json:"user_id"`
}

// ChunkHit 定义了返回给前端的分块搜索结果结构。
type ChunkHit struct {
	FileMD5     string  `json:"fileMd5"`
	FileName    string  `json:"fileName"`
	ChunkID     int     `json:"chunkId"`
	TextContent string  `json:"textContent"`
	Score       float64 `json:"score"`
}
