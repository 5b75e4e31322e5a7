package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	Data struct {
		File          string   `json:"file"`           // 输入数据文件路径(csv或xlsx)
		SheetName     string   `json:"sheet_name"`     // xlsx工作表名，csv时忽略
		Dir           string   `json:"dir"`            // 数据目录(监控与邮件附件保存)
		Watch         bool     `json:"watch"`          // 是否监控数据目录变化
		CheckInterval Duration `json:"check_interval"` // 定时重跑间隔，0表示单次运行
	} `json:"data"`

	Analysis struct {
		Seed              int64   `json:"seed"`                // 随机种子，保证可复现
		TestRatio         float64 `json:"test_ratio"`          // 回归测试集比例
		KMin              int     `json:"k_min"`               // 聚类K搜索下界
		KMax              int     `json:"k_max"`               // 聚类K搜索上界
		SamplesPerCluster int     `json:"samples_per_cluster"` // 报告中每簇示例行数
	} `json:"analysis"`

	Report struct {
		PlotFile  string `json:"plot_file"`  // 聚类散点图输出路径
		ExcelFile string `json:"excel_file"` // 带聚类标注的xlsx输出路径
		Webhook   string `json:"webhook"`    // 运行摘要推送地址，空则不推送
	} `json:"report"`

	Email struct {
		Server        string   `json:"server"`         // 邮件服务器地址
		Username      string   `json:"username"`       // 邮箱用户名
		Password      string   `json:"password"`       // 邮箱密码
		TargetSubject string   `json:"target_subject"` // 需要匹配的邮件主题
		CheckInterval Duration `json:"check_interval"` // 检查新邮件的间隔时间
	} `json:"email"`

	SendEmail struct {
		Server   string   `json:"server"`   // SMTP服务器地址
		Username string   `json:"username"` // 发件邮箱
		Password string   `json:"password"` // 发件密码/授权码
		To       []string `json:"to"`       // 报告收件人
	} `json:"send_email"`

	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"`
}

// DataConfig 描述输入表的列语义：特征列、目标列、身份列与报告展示列
type DataConfig struct {
	Features   []string `json:"features"`
	Target     string   `json:"target"`
	Identity   []string `json:"identity"`
	SampleCols []string `json:"sample_cols"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)
	return cfg, dcfg, nil
}

// applyDefaults 为缺省的分析参数填入默认值
func applyDefaults(cfg *Config) {
	if cfg.Analysis.TestRatio <= 0 || cfg.Analysis.TestRatio >= 1 {
		cfg.Analysis.TestRatio = 0.2
	}
	if cfg.Analysis.KMin < 2 {
		cfg.Analysis.KMin = 2
	}
	if cfg.Analysis.KMax < cfg.Analysis.KMin {
		cfg.Analysis.KMax = 9
	}
	if cfg.Analysis.SamplesPerCluster <= 0 {
		cfg.Analysis.SamplesPerCluster = 5
	}
	if cfg.LogName == "" {
		cfg.LogName = "app.log"
	}
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// GetFeatures 返回特征列列表(线程安全)
func (dc *DataConfig) GetFeatures() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, len(dc.Features))
	copy(out, dc.Features)
	return out
}

// GetTarget 返回目标列名(线程安全)
func (dc *DataConfig) GetTarget() string {
	mu.RLock()
	defer mu.RUnlock()
	return dc.Target
}

// SetTarget 修改目标列名(线程安全)
func (dc *DataConfig) SetTarget(name string) {
	mu.Lock()
	defer mu.Unlock()
	dc.Target = name
}
