package handler

import (
	"consumerai-go/internal/middleware"
	"consumerai-go/internal/service"
	"consumerai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责处理文档上传与检索相关的 API 请求。
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Upload 处理 multipart 形式的 PDF 上传。
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "无效的请求：缺少上传文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("Upload: 打开上传文件失败, error: %v", err)
		respondBadRequest(c, "无法读取上传文件")
		return
	}
	defer file.Close()

	upload, err := h.documentService.Upload(c.Request.Context(), middleware.CurrentUserID(c),
		fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, upload)
}

// Download 为当前用户的文件生成限时下载地址。
func (h *DocumentHandler) Download(c *gin.Context) {
	fileMD5 := c.Query("fileMd5")
	if fileMD5 == "" {
		respondBadRequest(c, "无效的请求：缺少文件标识")
		return
	}

	url, err := h.documentService.DownloadURL(middleware.CurrentUserID(c), fileMD5)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"url": url})
}

// Search 在当前用户的文档分块中做全文检索。
func (h *DocumentHandler) Search(c *gin.Context) {
	query := c.Query("q")

	hits, err := h.documentService.Search(c.Request.Context(), middleware.CurrentUserID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"hits": hits})
}
