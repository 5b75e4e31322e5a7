package processor

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"

	"PlayerProfiling/src/utils"
)

// DefaultFeatureColumns 默认的十个数值特征列(归一化后的列名)
var DefaultFeatureColumns = []string{
	"on_base_percent",
	"slg_percent",
	"isolated_power",
	"k_percent",
	"bb_percent",
	"exit_velocity_avg",
	"sprint_speed",
	"wrcplus",
	"f_fielding",
	"spd",
}

// DefaultTargetColumn 默认回归目标列
const DefaultTargetColumn = "war"

// DefaultIdentityColumns 默认身份列
var DefaultIdentityColumns = []string{"first", "last"}

// FeatureSet 是特征准备阶段的输出：
// 特征矩阵X、目标向量Y、保留行的原表子集，三者按原始行序对齐
type FeatureSet struct {
	Columns []string
	Target  string
	X       [][]float64
	Y       []float64
	Rows    dataframe.DataFrame // 保留行的完整记录(含身份列)
	Index   []int               // 保留行在原表中的位置
}

// NRows 返回保留的行数
func (fs *FeatureSet) NRows() int { return len(fs.X) }

// PrepareFeatures 从表中抽取特征矩阵和目标向量，
// 丢弃任一特征列或目标列缺失的行
func PrepareFeatures(df dataframe.DataFrame, features []string, target string) (*FeatureSet, error) {
	if len(features) == 0 {
		features = DefaultFeatureColumns
	}
	if target == "" {
		target = DefaultTargetColumn
	}

	// 列存在性检查
	for _, col := range append(append([]string{}, features...), target) {
		if !utils.HasColumn(df, col) {
			return nil, fmt.Errorf("%w: %s", ErrSchema, col)
		}
	}

	n := df.Nrow()
	cols := make([][]float64, len(features))
	for j, name := range features {
		cols[j] = df.Col(name).Float()
	}
	targetCol := df.Col(target).Float()

	// 按原始行序保留无缺失行
	var (
		X     [][]float64
		Y     []float64
		index []int
	)
	for i := 0; i < n; i++ {
		ok := isFinite(targetCol[i])
		for j := 0; ok && j < len(cols); j++ {
			ok = isFinite(cols[j][i])
		}
		if !ok {
			continue
		}

		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = cols[j][i]
		}
		X = append(X, row)
		Y = append(Y, targetCol[i])
		index = append(index, i)
	}

	fs := &FeatureSet{
		Columns: append([]string{}, features...),
		Target:  target,
		X:       X,
		Y:       Y,
		Index:   index,
	}
	if len(index) > 0 {
		fs.Rows = df.Subset(index)
		if fs.Rows.Err != nil {
			return nil, fmt.Errorf("保留行子集失败: %w", fs.Rows.Err)
		}
	}
	return fs, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
