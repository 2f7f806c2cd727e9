package repository

import (
	"time"

	"consumerai-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository 接口定义了文档上传记录与文本分块的数据操作。
type DocumentRepository interface {
	CreateUpload(upload *model.DocumentUpload) error
	FindUpload(fileMD5 string, userID uint) (*model.DocumentUpload, error)
	FindUploadByMD5(fileMD5 string) (*model.DocumentUpload, error)
	// UpdateUploadStatus 更新处理状态；状态为已处理时同时记录分块数和完成时间。
	UpdateUploadStatus(id uint, status int, chunkCount int) error
	FindUploadsByUser(userID uint) ([]model.DocumentUpload, error)
	BatchCreateChunks(chunks []model.DocumentChunk) error
	DeleteChunksByMD5(fileMD5 string) error
	FindChunksByMD5(fileMD5 string) ([]model.DocumentChunk, error)
}

// documentRepository 是 DocumentRepository 接口的 GORM 实现。
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// CreateUpload 在数据库中创建一条上传记录。
func (r *documentRepository) CreateUpload(upload *model.DocumentUpload) error {
	return r.db.Create(upload).Error
}

// FindUpload 查找指定用户的上传记录。
func (r *documentRepository) FindUpload(fileMD5 string, userID uint) (*model.DocumentUpload, error) {
	var upload model.DocumentUpload
	err := r.db.Where("file_md5 = ? AND user_id = ?", fileMD5, userID).First(&upload).Error
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

// FindUploadByMD5 根据文件指纹查找上传记录（流水线消费端用）。
func (r *documentRepository) FindUploadByMD5(fileMD5 string) (*model.DocumentUpload, error) {
	var upload model.DocumentUpload
	err := r.db.Where("file_md5 = ?", fileMD5).First(&upload).Error
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

// UpdateUploadStatus 更新上传记录的处理状态。
func (r *documentRepository) UpdateUploadStatus(id uint, status int, chunkCount int) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if status == model.UploadStatusProcessed {
		now := time.Now()
		updates["chunk_count"] = chunkCount
		updates["processed_at"] = &now
	}
	return r.db.Model(&model.DocumentUpload{}).Where("id = ?", id).Updates(updates).Error
}

// FindUploadsByUser 查找指定用户的全部上传记录。
func (r *documentRepository) FindUploadsByUser(userID uint) ([]model.DocumentUpload, error) {
	var uploads []model.DocumentUpload
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&uploads).Error
	return uploads, err
}

// BatchCreateChunks 批量写入文本分块。
func (r *documentRepository) BatchCreateChunks(chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.CreateInBatches(chunks, 100).Error
}

// DeleteChunksByMD5 删除指定文件的全部分块（重新处理前清理旧数据）。
func (r *documentRepository) DeleteChunksByMD5(fileMD5 string) error {
	return r.db.Where("file_md5 = ?", fileMD5).Delete(&model.DocumentChunk{}).Error
}

// FindChunksByMD5 按分块序号顺序返回指定文件的全部分块。
func (r *documentRepository) FindChunksByMD5(fileMD5 string) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	err := r.db.Where("file_md5 = ?", fileMD5).Order("chunk_id asc").Find(&chunks).Error
	return chunks, err
}
