// Package pipeline 实现了文档摄取流水线：
// 下载 → 文本抽取（扫描件走 OCR 兜底）→ 分块 → 向量化 → 入库与索引。
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"consumerai-go/internal/config"
	"consumerai-go/internal/model"
	"consumerai-go/internal/repository"
	"consumerai-go/pkg/embedding"
	"consumerai-go/pkg/es"
	"consumerai-go/pkg/extract"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/ocr"
	"consumerai-go/pkg/storage"
	"consumerai-go/pkg/tasks"

	"github.com/minio/minio-go/v7"
)

const (
	// chunkSize 是分块窗口大小（按 rune 计），相邻分块无重叠。
	chunkSize = 1500
	// minTextRunes 低于此长度的抽取结果视为无文本层，走 OCR。
	minTextRunes = 10
)

// Processor 消费摄取任务并完成整条流水线。
type Processor struct {
	documentRepo repository.DocumentRepository
	extractor    *extract.Client
	ocrClient    *ocr.Client
	embedder     embedding.Client
	minioCfg     config.MinIOConfig
	elasticCfg   config.ElasticConfig
}

// NewProcessor 创建一个新的流水线处理器。
func NewProcessor(
	documentRepo repository.DocumentRepository,
	extractor *extract.Client,
	ocrClient *ocr.Client,
	embedder embedding.Client,
	minioCfg config.MinIOConfig,
	elasticCfg config.ElasticConfig,
) *Processor {
	return &Processor{
		documentRepo: documentRepo,
		extractor:    extractor,
		ocrClient:    ocrClient,
		embedder:     embedder,
		minioCfg:     minioCfg,
		elasticCfg:   elasticCfg,
	}
}

// Process 处理一个摄取任务。返回错误时消费者按重试计数决定是否重投。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentIngestTask) error {
	upload, err := p.documentRepo.FindUploadByMD5(task.FileMD5)
	if err != nil {
		return fmt.Errorf("查找上传记录失败: %w", err)
	}

	// 1. 从对象存储下载原始文件
	obj, err := storage.MinioClient.GetObject(ctx, p.minioCfg.BucketName, task.ObjectName, minio.GetObjectOptions{})
	if err != nil {
		return p.fail(upload.ID, fmt.Errorf("下载文件失败: %w", err))
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return p.fail(upload.ID, fmt.Errorf("读取文件失败: %w", err))
	}

	// 2. 抽取文本层；过短则按扫描件处理
	text, err := p.extractor.ExtractText(bytes.NewReader(data), task.FileName)
	if err != nil {
		return p.fail(upload.ID, fmt.Errorf("文本抽取失败: %w", err))
	}

	if len([]rune(text)) < minTextRunes {
		log.Infof("文本层过短，转入 OCR 识别: MD5=%s", task.FileMD5)
		text = p.recognizeScanned(ctx, data, task.FileName)
	}

	// 3. 分块
	chunks := SplitFixed(text, chunkSize)
	if len(chunks) == 0 {
		chunks = []string{placeholderText(task.FileName)}
	}

	// 4. 清理旧数据，保证重新处理是幂等的
	if err := p.documentRepo.DeleteChunksByMD5(task.FileMD5); err != nil {
		return p.fail(upload.ID, fmt.Errorf("清理旧分块失败: %w", err))
	}
	if err := es.DeleteChunksByFileMD5(ctx, p.elasticCfg.IndexName, task.FileMD5); err != nil {
		log.Errorf("清理索引中旧分块失败: MD5=%s, error: %v", task.FileMD5, err)
	}

	// 5. 逐块向量化并写入；首个失败即中止，已写入的分块保留
	stored := 0
	for i, chunkText := range chunks {
		vector, err := p.embedder.CreateEmbedding(ctx, chunkText)
		if err != nil {
			log.Errorf("向量化失败，终止剩余分块: MD5=%s, chunk=%d, error: %v", task.FileMD5, i, err)
			return p.fail(upload.ID, fmt.Errorf("向量化分块 %d 失败: %w", i, err))
		}

		chunk := model.DocumentChunk{
			FileMD5:      task.FileMD5,
			ChunkID:      i,
			TextContent:  chunkText,
			ModelVersion: p.embedder.Model(),
			UserID:       task.UserID,
		}
		if err := p.documentRepo.BatchCreateChunks([]model.DocumentChunk{chunk}); err != nil {
			return p.fail(upload.ID, fmt.Errorf("保存分块 %d 失败: %w", i, err))
		}

		doc := model.EsChunk{
			VectorID:     fmt.Sprintf("%s_%d", task.FileMD5, i),
			FileMD5:      task.FileMD5,
			ChunkID:      i,
			TextContent:  chunkText,
			Vector:       vector,
			ModelVersion: p.embedder.Model(),
			UserID:       task.UserID,
		}
		if err := es.IndexChunk(ctx, p.elasticCfg.IndexName, doc); err != nil {
			return p.fail(upload.ID, fmt.Errorf("索引分块 %d 失败: %w", i, err))
		}
		stored++
	}

	// 6. 标记完成
	if err := p.documentRepo.UpdateUploadStatus(upload.ID, model.UploadStatusProcessed, stored); err != nil {
		return fmt.Errorf("更新处理状态失败: %w", err)
	}

	log.Infof("摄取完成: MD5=%s, chunks=%d", task.FileMD5, stored)
	return nil
}

// fail 将上传记录标记为处理失败并原样返回传入的错误。
func (p *Processor) fail(uploadID uint, err error) error {
	if updateErr := p.documentRepo.UpdateUploadStatus(uploadID, model.UploadStatusFailed, 0); updateErr != nil {
		log.Errorf("更新失败状态失败: upload=%d, error: %v", uploadID, updateErr)
	}
	return err
}

// recognizeScanned 对扫描件做 OCR。任何 OCR 失败（含超限）都降级为
// 一个占位分块，让文件以已处理状态落地而不是反复重试。
func (p *Processor) recognizeScanned(ctx context.Context, data []byte, fileName string) string {
	text, err := p.ocrClient.DetectText(ctx, data)
	if err != nil {
		log.Errorf("OCR 识别失败，使用占位文本: file=%s, error: %v", fileName, err)
		return placeholderText(fileName)
	}
	if len([]rune(text)) < minTextRunes {
		return placeholderText(fileName)
	}
	return text
}

func placeholderText(fileName string) string {
	return fmt.Sprintf("扫描件 %s 暂无法识别文本内容。", fileName)
}

// SplitFixed 将文本按固定窗口大小（rune 计数）切分，无重叠。
// 空文本返回空切片。
func SplitFixed(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 || size <= 0 {
		return nil
	}

	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
