// data_handler.go
package email

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"PlayerProfiling/src/storage"
)

// ====================== 邮件附件处理器 ======================

// StatsAttachmentHandler 从目标邮件中提取csv/xlsx统计数据附件并保存到数据目录
type StatsAttachmentHandler struct {
	TargetSubject string          // 目标邮件主题关键词
	DataDir       string          // 附件保存目录
	processedUIDs map[uint32]bool // 已处理邮件UID记录
	mu            sync.RWMutex    // 保护processedUIDs的读写锁
}

func NewStatsAttachmentHandler(subject, dataDir string) *StatsAttachmentHandler {
	return &StatsAttachmentHandler{
		TargetSubject: subject,
		DataDir:       dataDir,
		processedUIDs: make(map[uint32]bool),
	}
}

// IsProcessed 检查邮件是否已处理过(线程安全)
func (h *StatsAttachmentHandler) IsProcessed(uid uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processedUIDs[uid]
}

// markAsProcessed 标记邮件为已处理(线程安全)
func (h *StatsAttachmentHandler) markAsProcessed(uid uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.processedUIDs[uid] = true
}

// Handle 处理单个邮件：保存首个csv/xlsx附件，返回保存路径
func (h *StatsAttachmentHandler) Handle(email *Email, logger *storage.Logger) (string, error) {
	if email == nil {
		return "", nil
	}
	if h.IsProcessed(email.UID) {
		return "", nil
	}

	if !strings.Contains(email.Subject, h.TargetSubject) {
		logger.Debug(fmt.Sprintf("跳过主题不匹配的邮件: %s", email.Subject))
		return "", nil
	}

	logger.Info(fmt.Sprintf("处理邮件: %s 发件人: %s 日期: %s",
		email.Subject, email.From, email.Date.Format("2006-01-02 15:04:05")))

	if err := os.MkdirAll(h.DataDir, 0755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	for _, attachment := range email.Attachments {
		if !isStatsFile(attachment.Filename) {
			continue
		}

		filePath := filepath.Join(h.DataDir, attachment.Filename)
		if err := os.WriteFile(filePath, attachment.Content, 0644); err != nil {
			return "", fmt.Errorf("保存附件失败: %w", err)
		}

		logger.Info(fmt.Sprintf("附件已保存到: %s", filePath))
		h.markAsProcessed(email.UID)
		return filePath, nil
	}

	return "", nil
}

func isStatsFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
