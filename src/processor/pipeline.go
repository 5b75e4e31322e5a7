package processor

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"PlayerProfiling/src/config"
	"PlayerProfiling/src/storage"
)

// Pipeline 串联特征准备、回归、聚类与报告四个阶段。
// 每个阶段依赖上一阶段的输出，任一阶段失败立即终止。
type Pipeline struct {
	features          []string
	target            string
	sampleCols        []string
	seed              int64
	testRatio         float64
	kMin, kMax        int
	samplesPerCluster int
	logger            *storage.Logger
}

// Result 一次完整运行的全部产出
type Result struct {
	Prepared   *FeatureSet
	Regression *RegressionSummary
	Clusters   *ClusterResult
}

func NewPipeline(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger) *Pipeline {
	p := &Pipeline{
		features:          dcfg.GetFeatures(),
		target:            dcfg.GetTarget(),
		sampleCols:        dcfg.SampleCols,
		seed:              cfg.Analysis.Seed,
		testRatio:         cfg.Analysis.TestRatio,
		kMin:              cfg.Analysis.KMin,
		kMax:              cfg.Analysis.KMax,
		samplesPerCluster: cfg.Analysis.SamplesPerCluster,
		logger:            logger,
	}
	if len(p.sampleCols) == 0 {
		p.sampleCols = append(append([]string{}, DefaultIdentityColumns...), p.target)
	}
	return p
}

// Run 对已加载的表执行完整分析
func (p *Pipeline) Run(df dataframe.DataFrame) (*Result, error) {
	fs, err := PrepareFeatures(df, p.features, p.target)
	if err != nil {
		return nil, fmt.Errorf("特征准备失败: %w", err)
	}
	p.logf("特征准备完成: 输入%d行，保留%d行", df.Nrow(), fs.NRows())

	reg, err := FitOLS(fs, p.testRatio, p.seed)
	if err != nil {
		return nil, fmt.Errorf("回归拟合失败: %w", err)
	}
	p.logf("回归完成: R²=%.4f RMSE=%.4f", reg.R2, reg.RMSE)

	cl, err := Cluster(fs.X, p.kMin, p.kMax, p.seed)
	if err != nil {
		return nil, fmt.Errorf("聚类失败: %w", err)
	}
	p.logf("聚类完成: K=%d 轮廓系数=%.4f", cl.K, cl.Silhouette)

	return &Result{Prepared: fs, Regression: reg, Clusters: cl}, nil
}

// Report 生成文本报告，并按配置输出散点图与xlsx
func (p *Pipeline) Report(res *Result, plotFile, excelFile string) (string, error) {
	text := Summary(res.Regression, res.Clusters) +
		ClusterSamples(res.Prepared.Rows, res.Clusters, p.sampleCols, p.samplesPerCluster)

	if plotFile != "" {
		if err := SavePlot(res.Clusters, plotFile); err != nil {
			return text, err
		}
		p.logf("散点图已保存: %s", plotFile)
	}
	if excelFile != "" {
		if err := SaveExcel(res.Prepared.Rows, res.Clusters, excelFile); err != nil {
			return text, err
		}
		p.logf("聚类标注表已保存: %s", excelFile)
	}
	return text, nil
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Info(fmt.Sprintf(format, args...))
	}
}
