package datapush

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// 常量定义
const (
	RETRY_TIMES    = 5
	RETRY_INTERVAL = 2 * time.Second
	PUSH_TIMEOUT   = 10 * time.Second
)

// Summary 推送给webhook的运行摘要
type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`
	DataFile    string    `json:"data_file"`
	Rows        int       `json:"rows"`
	R2          float64   `json:"r2"`
	RMSE        float64   `json:"rmse"`
	BestK       int       `json:"best_k"`
	Silhouette  float64   `json:"silhouette"`
}

var httpClient = &http.Client{Timeout: PUSH_TIMEOUT}

// PushSummary 将运行摘要POST到webhook，失败后有限重试
func PushSummary(url string, s Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("序列化摘要失败: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= RETRY_TIMES; attempt++ {
		if lastErr = post(url, payload); lastErr == nil {
			return nil
		}
		if attempt < RETRY_TIMES {
			time.Sleep(RETRY_INTERVAL)
		}
	}
	return fmt.Errorf("推送摘要失败(重试%d次): %w", RETRY_TIMES, lastErr)
}

func post(url string, payload []byte) error {
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook返回 %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
