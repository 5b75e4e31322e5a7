package processor

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RegressionSummary 回归阶段的产出：拟合系数与留出集上的评估指标
type RegressionSummary struct {
	Features  []string
	Coef      []float64 // 与Features一一对应
	Intercept float64
	R2        float64
	RMSE      float64
	TrainRows int
	TestRows  int
}

// TrainTestSplit 以固定种子将n行确定性地划分为训练/测试下标
func TrainTestSplit(n int, testRatio float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	nTest := int(float64(n) * testRatio)
	test = append(test, perm[:nTest]...)
	train = append(train, perm[nTest:]...)
	return train, test
}

// FitOLS 对特征集做80/20划分后拟合普通最小二乘线性模型，
// 在留出集上评估R²与RMSE
func FitOLS(fs *FeatureSet, testRatio float64, seed int64) (*RegressionSummary, error) {
	n := fs.NRows()
	if n < 2 {
		return nil, fmt.Errorf("%w: 回归需要至少2行，实际%d行", ErrDataInsufficient, n)
	}

	train, test := TrainTestSplit(n, testRatio, seed)
	if len(train) < 2 || len(test) < 1 {
		return nil, fmt.Errorf("%w: 划分后训练%d行/测试%d行", ErrDataInsufficient, len(train), len(test))
	}

	p := len(fs.Columns)
	// QR要求行数不少于列数(p个特征+截距)
	if len(train) < p+1 {
		return nil, fmt.Errorf("%w: 训练%d行少于%d个待估参数", ErrDataInsufficient, len(train), p+1)
	}
	beta, err := solveOLS(fs.X, fs.Y, train, p)
	if err != nil {
		return nil, err
	}

	// 留出集评估
	estimates := make([]float64, len(test))
	actual := make([]float64, len(test))
	sqErr := 0.0
	for i, idx := range test {
		yhat := beta[0]
		for j := 0; j < p; j++ {
			yhat += beta[j+1] * fs.X[idx][j]
		}
		estimates[i] = yhat
		actual[i] = fs.Y[idx]
		d := yhat - fs.Y[idx]
		sqErr += d * d
	}

	return &RegressionSummary{
		Features:  append([]string{}, fs.Columns...),
		Coef:      beta[1:],
		Intercept: beta[0],
		R2:        stat.RSquaredFrom(estimates, actual, nil),
		RMSE:      math.Sqrt(sqErr / float64(len(test))),
		TrainRows: len(train),
		TestRows:  len(test),
	}, nil
}

// solveOLS 用QR分解求解带截距项的正规方程，
// R对角线接近零说明设计矩阵秩亏(特征完全共线)
func solveOLS(X [][]float64, Y []float64, rows []int, p int) ([]float64, error) {
	a := mat.NewDense(len(rows), p+1, nil)
	b := mat.NewDense(len(rows), 1, nil)
	for i, idx := range rows {
		a.Set(i, 0, 1) // 截距列
		for j := 0; j < p; j++ {
			a.Set(i, j+1, X[idx][j])
		}
		b.Set(i, 0, Y[idx])
	}

	var qr mat.QR
	qr.Factorize(a)

	var r mat.Dense
	qr.RTo(&r)

	maxDiag := 0.0
	for j := 0; j <= p; j++ {
		if d := math.Abs(r.At(j, j)); d > maxDiag {
			maxDiag = d
		}
	}
	if maxDiag == 0 {
		return nil, ErrDegenerateInput
	}
	for j := 0; j <= p; j++ {
		if math.Abs(r.At(j, j)) < maxDiag*1e-10 {
			return nil, fmt.Errorf("%w: 第%d列", ErrDegenerateInput, j)
		}
	}

	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateInput, err)
	}

	beta := make([]float64, p+1)
	for j := 0; j <= p; j++ {
		beta[j] = sol.At(j, 0)
	}
	return beta, nil
}
