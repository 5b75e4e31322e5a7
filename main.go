package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"

	"PlayerProfiling/src/config"
	"PlayerProfiling/src/datapush"
	"PlayerProfiling/src/datasource/email"
	"PlayerProfiling/src/datasource/file"
	"PlayerProfiling/src/processor"
	"PlayerProfiling/src/storage"
)

func main() {
	jsonFolder := "./config"
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Close()

	// 定期检查日志大小，超限后轮转
	if cfg.LogMaxSize != "" {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				if err := logger.CheckRotate(cfg.LogMaxSize); err != nil {
					logger.Error("日志轮转失败: " + err.Error())
				}
			}
		}()
	}

	pipeline := processor.NewPipeline(cfg, dcfg, logger)

	// 单次分析：加载 -> 准备 -> 回归/聚类 -> 报告
	runOnce := func(path string) error {
		t1 := time.Now()
		logger.Info("开始分析: " + path)

		df, err := file.Load(path, cfg.Data.SheetName)
		if err != nil {
			return err
		}

		res, err := pipeline.Run(df)
		if err != nil {
			return err
		}

		text, err := pipeline.Report(res, cfg.Report.PlotFile, cfg.Report.ExcelFile)
		if text != "" {
			fmt.Println(text)
		}
		if err != nil {
			return err
		}

		deliver(cfg, res, path, logger)
		logger.Info(fmt.Sprintf("分析完成，耗时: %v", time.Since(t1)))
		return nil
	}

	// 首次运行
	if err := runOnce(cfg.Data.File); err != nil {
		logger.Error("分析失败: " + err.Error())
		fmt.Fprintln(os.Stderr, "分析失败:", err)
		os.Exit(1)
	}

	background := false

	// 数据目录监控：新文件落地后重跑
	if cfg.Data.Watch && cfg.Data.Dir != "" {
		monitor, err := file.NewFileMonitor(cfg.Data.Dir)
		if err != nil {
			logger.Error("创建文件监控失败: " + err.Error())
		} else {
			background = true
			go func() {
				if err := monitor.Watch(func(path string) {
					if err := runOnce(path); err != nil {
						logger.Error("分析失败: " + err.Error())
					}
				}); err != nil {
					logger.Error("文件监控错误: " + err.Error())
				}
			}()
			logger.Info("已监控数据目录: " + cfg.Data.Dir)
		}
	}

	// 邮箱定时检查：目标主题邮件的附件保存后重跑
	if cfg.Email.CheckInterval > 0 && cfg.Email.Server != "" {
		emailClient := email.NewEmailClient(
			cfg.Email.Server,
			cfg.Email.Username,
			cfg.Email.Password)
		handler := email.NewStatsAttachmentHandler(cfg.Email.TargetSubject, cfg.Data.Dir)

		c := cron.New()
		interval := time.Duration(cfg.Email.CheckInterval).String()
		cronSpec := fmt.Sprintf("@every %s", interval)

		err = c.AddFunc(cronSpec, func() {
			logger.Info(fmt.Sprintf("开始定时检查(间隔: %v)...", cronSpec))

			newEmail, err := email.CheckAndProcessEmails(emailClient, cfg.Email.TargetSubject, logger)
			if err != nil {
				logger.Error("检查处理邮件失败: " + err.Error())
				return
			}

			savedPath, err := handler.Handle(newEmail, logger)
			if err != nil {
				logger.Error("处理附件失败: " + err.Error())
				return
			}
			if savedPath == "" {
				return
			}

			if err := runOnce(savedPath); err != nil {
				logger.Error("分析失败: " + err.Error())
			}
		})
		if err != nil {
			logger.Error("创建定时任务失败: " + err.Error())
			return
		}

		background = true
		c.Start()
		defer c.Stop()
		logger.Info(fmt.Sprintf("邮件监控服务已启动(检查间隔: %v)", interval))
	}

	if !background {
		return // 单次运行结束
	}

	waitForShutdown(logger)
}

// deliver 按配置推送运行摘要与报告
func deliver(cfg *config.Config, res *processor.Result, dataFile string, logger *storage.Logger) {
	if cfg.Report.Webhook != "" {
		summary := datapush.Summary{
			GeneratedAt: time.Now(),
			DataFile:    dataFile,
			Rows:        res.Prepared.NRows(),
			R2:          res.Regression.R2,
			RMSE:        res.Regression.RMSE,
			BestK:       res.Clusters.K,
			Silhouette:  res.Clusters.Silhouette,
		}
		if err := datapush.PushSummary(cfg.Report.Webhook, summary); err != nil {
			logger.Error("摘要推送失败: " + err.Error())
		}
	}

	if cfg.SendEmail.Server != "" && len(cfg.SendEmail.To) > 0 {
		subject := fmt.Sprintf("球员数据分析报告 %s", time.Now().Format("2006-01-02"))
		body := processor.Summary(res.Regression, res.Clusters)
		if err := email.SendReport(cfg, subject, body,
			cfg.Report.PlotFile, cfg.Report.ExcelFile); err != nil {
			logger.Error("报告邮件发送失败: " + err.Error())
		}
	}
}

func waitForShutdown(logger *storage.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal: " + sig.String() + ", shutting down...")
}
