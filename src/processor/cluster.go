package processor

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const kmeansMaxIter = 100

// StandardScaler 将每个特征列缩放为零均值单位方差
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

func (s *StandardScaler) Fit(X [][]float64) {
	if len(X) == 0 {
		return
	}
	c := len(X[0])
	s.Mean = make([]float64, c)
	s.Std = make([]float64, c)

	col := make([]float64, len(X))
	for j := 0; j < c; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1 // 常数列缩放后为0
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
}

func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = r
	}
	return out
}

func (s *StandardScaler) FitTransform(X [][]float64) [][]float64 {
	s.Fit(X)
	return s.Transform(X)
}

// ProjectPCA2 把矩阵投影到前两个主成分，仅用于可视化。
// 输入应已标准化(零均值)，投影时不再另行中心化。
func ProjectPCA2(X [][]float64) ([][]float64, error) {
	n := len(X)
	if n < 2 {
		return nil, fmt.Errorf("%w: PCA需要至少2行", ErrDataInsufficient)
	}
	d := len(X[0])
	if d < 2 {
		return nil, fmt.Errorf("%w: PCA需要至少2个特征", ErrDegenerateInput)
	}

	flat := make([]float64, 0, n*d)
	for _, row := range X {
		flat = append(flat, row...)
	}
	data := mat.NewDense(n, d, flat)

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, fmt.Errorf("%w: 主成分分解失败", ErrDegenerateInput)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	var projected mat.Dense
	projected.Mul(data, vecs.Slice(0, d, 0, 2))

	proj := make([][]float64, n)
	for i := 0; i < n; i++ {
		proj[i] = []float64{projected.At(i, 0), projected.At(i, 1)}
	}
	return proj, nil
}

// KMeans 基于质心的聚类模型，固定种子保证可复现
type KMeans struct {
	K         int
	MaxIter   int
	Centroids [][]float64
	Inertia   float64
	seed      int64
}

func NewKMeans(k int, seed int64) *KMeans {
	return &KMeans{K: k, MaxIter: kmeansMaxIter, seed: seed}
}

// Fit 迭代求解质心：kmeans++初始化，指派/更新直至收敛
func (m *KMeans) Fit(X [][]float64) error {
	n := len(X)
	if n == 0 {
		return fmt.Errorf("%w: 聚类输入为空", ErrDataInsufficient)
	}
	if n < m.K {
		return fmt.Errorf("%w: 行数%d少于K=%d", ErrDataInsufficient, n, m.K)
	}

	p := len(X[0])
	rng := rand.New(rand.NewSource(m.seed))
	m.initCenters(X, rng)

	assign := make([]int, n)
	for it := 0; it < m.MaxIter; it++ {
		changed := false
		m.Inertia = 0.0

		// 指派步骤
		for i := 0; i < n; i++ {
			best, bestdSquared := -1, math.MaxFloat64
			for k := 0; k < m.K; k++ {
				dSquared := euclidSquared(X[i], m.Centroids[k])
				if dSquared < bestdSquared {
					bestdSquared = dSquared
					best = k
				}
			}
			if assign[i] != best {
				changed = true
			}
			assign[i] = best
			m.Inertia += bestdSquared
		}

		// 更新步骤
		sums := make([][]float64, m.K)
		counts := make([]int, m.K)
		for k := 0; k < m.K; k++ {
			sums[k] = make([]float64, p)
		}
		for i := 0; i < n; i++ {
			k := assign[i]
			counts[k]++
			for j := 0; j < p; j++ {
				sums[k][j] += X[i][j]
			}
		}
		for k := 0; k < m.K; k++ {
			if counts[k] == 0 {
				continue // 空簇保留旧质心
			}
			for j := 0; j < p; j++ {
				m.Centroids[k][j] = sums[k][j] / float64(counts[k])
			}
		}

		if !changed && it > 0 {
			break
		}
	}
	return nil
}

// Predict 返回每行最近质心的簇编号
func (m *KMeans) Predict(X [][]float64) []int {
	labels := make([]int, len(X))
	for i := range X {
		best, bestdSquared := -1, math.MaxFloat64
		for k := 0; k < m.K; k++ {
			dSquared := euclidSquared(X[i], m.Centroids[k])
			if dSquared < bestdSquared {
				bestdSquared = dSquared
				best = k
			}
		}
		labels[i] = best
	}
	return labels
}

// initCenters kmeans++初始化：首个质心随机，其余按距离平方加权采样
func (m *KMeans) initCenters(X [][]float64, rng *rand.Rand) {
	n := len(X)
	m.Centroids = make([][]float64, m.K)

	idx := rng.Intn(n)
	m.Centroids[0] = append([]float64{}, X[idx]...)

	for k := 1; k < m.K; k++ {
		distSq := make([]float64, n)
		total := 0.0
		for i, x := range X {
			minDist := math.MaxFloat64
			for _, c := range m.Centroids[:k] {
				if d2 := euclidSquared(x, c); d2 < minDist {
					minDist = d2
				}
			}
			distSq[i] = minDist
			total += minDist
		}

		if total == 0 {
			// 所有点重合，退化为取任意点
			m.Centroids[k] = append([]float64{}, X[rng.Intn(n)]...)
			continue
		}

		r := rng.Float64() * total
		cumulative := 0.0
		chosen := n - 1
		for i, d2 := range distSq {
			cumulative += d2
			if cumulative >= r {
				chosen = i
				break
			}
		}
		m.Centroids[k] = append([]float64{}, X[chosen]...)
	}
}

func euclidSquared(a, b []float64) float64 {
	s := 0.0
	for j := range a {
		d := a[j] - b[j]
		s += d * d
	}
	return s
}

// Silhouette 计算平均轮廓系数：
// a=点到本簇其余点的平均距离，b=到最近其他簇的平均距离，s=(b-a)/max(a,b)
func Silhouette(X [][]float64, labels []int, k int) float64 {
	n := len(X)
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	total := 0.0
	for i := 0; i < n; i++ {
		own := labels[i]
		if counts[own] <= 1 {
			continue // 单点簇的轮廓系数按0计
		}

		sums := make([]float64, k)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[labels[j]] += math.Sqrt(euclidSquared(X[i], X[j]))
		}

		a := sums[own] / float64(counts[own]-1)
		b, hasOther := math.MaxFloat64, false
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			hasOther = true
			if avg := sums[c] / float64(counts[c]); avg < b {
				b = avg
			}
		}
		if !hasOther {
			continue // 只有一个非空簇时该点按0计，不奖励退化划分
		}

		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
		}
	}
	return total / float64(n)
}

// ClusterResult 聚类阶段的产出
type ClusterResult struct {
	K          int
	Labels     []int
	Proj       [][]float64 // n x 2 主成分投影坐标
	Silhouette float64
	Scores     map[int]float64 // 每个候选K的轮廓系数
	Centroids  [][]float64
}

// Cluster 标准化后在[kMin,kMax]内按轮廓系数选K并完成最终聚类。
// 升序遍历，分数并列时保留较小的K。标准化与PCA使用全部保留行，
// 与回归的train/test划分无关。
func Cluster(X [][]float64, kMin, kMax int, seed int64) (*ClusterResult, error) {
	n := len(X)
	if n < kMin+1 {
		return nil, fmt.Errorf("%w: %d行不足以在K>=%d下计算轮廓系数", ErrDataInsufficient, n, kMin)
	}

	scaled := NewStandardScaler().FitTransform(X)

	proj, err := ProjectPCA2(scaled)
	if err != nil {
		return nil, err
	}

	// K搜索：轮廓系数最大者胜出
	bestK, bestScore := 0, math.Inf(-1)
	scores := make(map[int]float64)
	upper := kMax
	if upper > n-1 {
		upper = n - 1
	}
	for k := kMin; k <= upper; k++ {
		km := NewKMeans(k, seed)
		if err := km.Fit(scaled); err != nil {
			return nil, err
		}
		score := Silhouette(scaled, km.Predict(scaled), k)
		scores[k] = score
		if score > bestScore {
			bestScore = score
			bestK = k
		}
	}
	if bestK == 0 {
		return nil, fmt.Errorf("%w: 没有可用的候选K", ErrDataInsufficient)
	}

	// 以选定K在全部保留行上重新拟合
	final := NewKMeans(bestK, seed)
	if err := final.Fit(scaled); err != nil {
		return nil, err
	}

	return &ClusterResult{
		K:          bestK,
		Labels:     final.Predict(scaled),
		Proj:       proj,
		Silhouette: bestScore,
		Scores:     scores,
		Centroids:  final.Centroids,
	}, nil
}
