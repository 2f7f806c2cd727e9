package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"consumerai-go/internal/apperr"
	"consumerai-go/internal/config"
	"consumerai-go/internal/model"
	"consumerai-go/internal/repository"
	"consumerai-go/pkg/es"
	"consumerai-go/pkg/kafka"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/storage"
	"consumerai-go/pkg/tasks"

	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"
)

// maxSearchHits 是单次分块搜索返回的最大条数。
const maxSearchHits = 10

// FileStats 汇总了用户的文件概况。
type FileStats struct {
	TotalFiles     int   `json:"totalFiles"`
	TotalSizeBytes int64 `json:"totalSizeBytes"`
	ProcessedFiles int   `json:"processedFiles"`
}

// FileListing 是 /users/me/files 的响应体。
type FileListing struct {
	Files []model.DocumentUpload `json:"files"`
	Stats FileStats              `json:"stats"`
}

// DocumentService 接口定义了文档上传与检索的业务操作。
type DocumentService interface {
	// Upload 保存文件到对象存储、登记上传记录并投递摄取任务。
	// 同一用户重复上传相同内容直接返回已有记录。
	Upload(ctx context.Context, userID uint, fileName string, size int64, file io.ReadSeeker) (*model.DocumentUpload, error)
	// Files 返回用户的文件列表和统计信息。
	Files(userID uint) (*FileListing, error)
	// Search 在用户自己的文档分块中做全文检索。
	Search(ctx context.Context, userID uint, query string) ([]model.ChunkHit, error)
	// DownloadURL 为用户自己的文件生成限时下载地址。
	DownloadURL(userID uint, fileMD5 string) (string, error)
}

// documentService 是 DocumentService 接口的实现。
type documentService struct {
	documentRepo repository.DocumentRepository
	minioCfg     config.MinIOConfig
	elasticCfg   config.ElasticConfig
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(documentRepo repository.DocumentRepository, minioCfg config.MinIOConfig, elasticCfg config.ElasticConfig) DocumentService {
	return &documentService{
		documentRepo: documentRepo,
		minioCfg:     minioCfg,
		elasticCfg:   elasticCfg,
	}
}

// Upload 处理一次文档上传。
func (s *documentService) Upload(ctx context.Context, userID uint, fileName string, size int64, file io.ReadSeeker) (*model.DocumentUpload, error) {
	if fileName == "" || size <= 0 {
		return nil, apperr.New(apperr.Validation, "上传文件无效")
	}
	if !strings.EqualFold(path.Ext(fileName), ".pdf") {
		return nil, apperr.New(apperr.Validation, "仅支持上传 PDF 文件")
	}

	// 1. 计算文件指纹
	h := md5.New()
	if _, err := io.Copy(h, file); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "上传失败", err)
	}
	fileMD5 := hex.EncodeToString(h.Sum(nil))

	// 2. 同一用户重复上传直接复用已有记录
	if existing, err := s.documentRepo.FindUpload(fileMD5, userID); err == nil {
		log.Infof("重复上传，复用已有记录: MD5=%s, userID=%d", fileMD5, userID)
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "上传失败", err)
	}

	// 3. 写入对象存储
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "上传失败", err)
	}
	objectName := fmt.Sprintf("documents/%s/%s", fileMD5, fileName)
	_, err := storage.MinioClient.PutObject(ctx, s.minioCfg.BucketName, objectName, file, size,
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "保存文件失败", err)
	}

	// 4. 登记上传记录
	upload := &model.DocumentUpload{
		FileMD5:   fileMD5,
		FileName:  fileName,
		TotalSize: size,
		Status:    model.UploadStatusPending,
		UserID:    userID,
	}
	if err := s.documentRepo.CreateUpload(upload); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "上传失败", err)
	}

	// 5. 投递摄取任务
	task := tasks.DocumentIngestTask{
		FileMD5:    fileMD5,
		ObjectName: objectName,
		FileName:   fileName,
		TotalSize:  size,
		UserID:     userID,
	}
	if err := kafka.ProduceIngestTask(task); err != nil {
		// 任务投递失败则标记为失败，避免记录永远停在待处理
		log.Errorf("投递摄取任务失败: MD5=%s, error: %v", fileMD5, err)
		_ = s.documentRepo.UpdateUploadStatus(upload.ID, model.UploadStatusFailed, 0)
		return nil, apperr.Wrap(apperr.Internal, "上传失败，请稍后重试", err)
	}

	log.Infof("文档上传成功并已入队: MD5=%s, file=%s, userID=%d", fileMD5, fileName, userID)
	return upload, nil
}

// Files 返回文件列表和统计信息。
func (s *documentService) Files(userID uint) (*FileListing, error) {
	uploads, err := s.documentRepo.FindUploadsByUser(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "获取文件列表失败", err)
	}

	stats := FileStats{TotalFiles: len(uploads)}
	for _, u := range uploads {
		stats.TotalSizeBytes += u.TotalSize
		if u.Status == model.UploadStatusProcessed {
			stats.ProcessedFiles++
		}
	}
	return &FileListing{Files: uploads, Stats: stats}, nil
}

// DownloadURL 生成一个 15 分钟有效的预签名下载地址。
func (s *documentService) DownloadURL(userID uint, fileMD5 string) (string, error) {
	upload, err := s.documentRepo.FindUpload(fileMD5, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.New(apperr.NotFound, "文件不存在")
		}
		return "", apperr.Wrap(apperr.Internal, "生成下载地址失败", err)
	}

	objectName := fmt.Sprintf("documents/%s/%s", upload.FileMD5, upload.FileName)
	url, err := storage.GetPresignedURL(s.minioCfg.BucketName, objectName, 15*time.Minute)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "生成下载地址失败", err)
	}
	return url, nil
}

// Search 检索用户自己的文档分块，并补全命中所属的文件名。
func (s *documentService) Search(ctx context.Context, userID uint, query string) ([]model.ChunkHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.New(apperr.Validation, "搜索关键词不能为空")
	}

	hits, err := es.SearchChunks(ctx, s.elasticCfg.IndexName, query, userID, maxSearchHits)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "搜索失败，请稍后重试", err)
	}

	// 按命中补全文件名，同一文件只查一次
	names := make(map[string]string)
	for i := range hits {
		name, ok := names[hits[i].FileMD5]
		if !ok {
			if upload, err := s.documentRepo.FindUploadByMD5(hits[i].FileMD5); err == nil {
				name = upload.FileName
			}
			names[hits[i].FileMD5] = name
		}
		hits[i].FileName = name
	}
	return hits, nil
}
