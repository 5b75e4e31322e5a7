package email

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"PlayerProfiling/src/storage"
)

func testLogger(t *testing.T) *storage.Logger {
	t.Helper()
	logger, err := storage.NewLogger(filepath.Join(t.TempDir(), "test.log"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger
}

func statsEmail(uid uint32, subject string, attachments ...*Attachment) *Email {
	return &Email{
		UID:         uid,
		Date:        time.Now(),
		From:        "analyst@example.com",
		Subject:     subject,
		Attachments: attachments,
	}
}

func TestHandleSavesStatsAttachment(t *testing.T) {
	dataDir := t.TempDir()
	h := NewStatsAttachmentHandler("球员数据", dataDir)

	email := statsEmail(1, "本周球员数据更新",
		&Attachment{Filename: "readme.txt", Content: []byte("ignore")},
		&Attachment{Filename: "stats.csv", Content: []byte("war,spd\n3.5,4.1\n")},
	)

	path, err := h.Handle(email, testLogger(t))
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if path != filepath.Join(dataDir, "stats.csv") {
		t.Errorf("saved path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("附件未落盘: %v", err)
	}
	if string(data) != "war,spd\n3.5,4.1\n" {
		t.Errorf("附件内容不一致: %q", data)
	}

	if !h.IsProcessed(1) {
		t.Error("邮件应被标记为已处理")
	}

	// 重复处理同一封邮件应跳过
	path, err = h.Handle(email, testLogger(t))
	if err != nil || path != "" {
		t.Errorf("重复处理应返回空路径, got %q, %v", path, err)
	}
}

func TestHandleIgnoresUnrelatedSubject(t *testing.T) {
	h := NewStatsAttachmentHandler("球员数据", t.TempDir())

	email := statsEmail(2, "会议纪要",
		&Attachment{Filename: "stats.csv", Content: []byte("war\n1.0\n")},
	)

	path, err := h.Handle(email, testLogger(t))
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if path != "" {
		t.Errorf("主题不匹配不应保存附件, got %q", path)
	}
	if h.IsProcessed(2) {
		t.Error("未处理的邮件不应被标记")
	}
}

func TestHandleNoStatsAttachment(t *testing.T) {
	h := NewStatsAttachmentHandler("球员数据", t.TempDir())

	email := statsEmail(3, "球员数据更新",
		&Attachment{Filename: "notes.pdf", Content: []byte("pdf")},
	)

	path, err := h.Handle(email, testLogger(t))
	if err != nil || path != "" {
		t.Errorf("无数据附件应返回空路径, got %q, %v", path, err)
	}
}

func TestFilterLatestTargetEmail(t *testing.T) {
	old := statsEmail(1, "球员数据 第一周")
	old.Date = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := statsEmail(2, "球员数据 第二周")
	newer.Date = time.Date(2026, 8, 8, 10, 0, 0, 0, time.UTC)
	other := statsEmail(3, "账单")
	other.Date = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	got := filterLatestTargetEmail([]*Email{old, other, newer}, "球员数据")
	if got == nil || got.UID != 2 {
		t.Errorf("应返回最新的目标邮件, got %+v", got)
	}

	if got := filterLatestTargetEmail([]*Email{other}, "球员数据"); got != nil {
		t.Errorf("无匹配应返回nil, got %+v", got)
	}
}

func TestIsStatsFile(t *testing.T) {
	cases := map[string]bool{
		"stats.csv":  true,
		"Stats.XLSX": true,
		"stats.pdf":  false,
		"stats":      false,
	}
	for name, want := range cases {
		if got := isStatsFile(name); got != want {
			t.Errorf("isStatsFile(%q) = %v, want %v", name, got, want)
		}
	}
}
