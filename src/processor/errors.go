package processor

import "errors"

// 分析阶段错误分类，调用方用errors.Is判断
var (
	// ErrSchema 期望的列在输入表中不存在
	ErrSchema = errors.New("schema error: required column missing")
	// ErrDataInsufficient 剩余行数不足以完成请求的计算
	ErrDataInsufficient = errors.New("insufficient data")
	// ErrDegenerateInput 特征矩阵数值退化(完全共线)，系数不可信
	ErrDegenerateInput = errors.New("degenerate input: feature matrix is rank-deficient")
)
