package processor

import (
	"errors"
	"math/rand"
	"testing"
)

// threeBlobs 生成三个间距远大于散布的高斯簇
func threeBlobs(perBlob int) [][]float64 {
	rng := rand.New(rand.NewSource(1))
	centers := [][]float64{
		{0, 0, 0, 0},
		{10, 10, 10, 10},
		{-10, 10, -10, 10},
	}

	var X [][]float64
	for _, c := range centers {
		for i := 0; i < perBlob; i++ {
			row := make([]float64, len(c))
			for j := range c {
				row[j] = c[j] + rng.NormFloat64()*0.3
			}
			X = append(X, row)
		}
	}
	return X
}

func TestClusterSelectsThreeBlobs(t *testing.T) {
	X := threeBlobs(30)

	res, err := Cluster(X, 2, 9, 42)
	if err != nil {
		t.Fatalf("Cluster failed: %v", err)
	}

	if res.K != 3 {
		t.Fatalf("expected K=3, got K=%d (scores: %v)", res.K, res.Scores)
	}
	if len(res.Labels) != len(X) {
		t.Fatalf("expected %d labels, got %d", len(X), len(res.Labels))
	}
	for i, l := range res.Labels {
		if l < 0 || l >= res.K {
			t.Fatalf("label out of range at %d: %d", i, l)
		}
	}
	if len(res.Proj) != len(X) || len(res.Proj[0]) != 2 {
		t.Fatalf("projection shape wrong: %d x %d", len(res.Proj), len(res.Proj[0]))
	}

	// 同一簇内的点应有相同标签：检查每个blob的标签一致
	for b := 0; b < 3; b++ {
		first := res.Labels[b*30]
		for i := 1; i < 30; i++ {
			if res.Labels[b*30+i] != first {
				t.Fatalf("blob %d split across clusters", b)
			}
		}
	}
}

func TestClusterDeterministic(t *testing.T) {
	X := threeBlobs(20)

	res1, err := Cluster(X, 2, 9, 42)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	res2, err := Cluster(X, 2, 9, 42)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if res1.K != res2.K {
		t.Fatalf("K differs between runs: %d vs %d", res1.K, res2.K)
	}
	for i := range res1.Labels {
		if res1.Labels[i] != res2.Labels[i] {
			t.Fatalf("labels differ at row %d", i)
		}
	}
}

func TestClusterTooFewRows(t *testing.T) {
	_, err := Cluster([][]float64{{1, 2}, {3, 4}}, 2, 9, 42)
	if !errors.Is(err, ErrDataInsufficient) {
		t.Fatalf("expected ErrDataInsufficient, got %v", err)
	}
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 100}, {2, 200}, {3, 300}}
	scaled := NewStandardScaler().FitTransform(X)

	for j := 0; j < 2; j++ {
		sum := 0.0
		for i := range scaled {
			sum += scaled[i][j]
		}
		if mean := sum / float64(len(scaled)); mean > 1e-12 || mean < -1e-12 {
			t.Errorf("column %d not centered: mean=%v", j, mean)
		}
	}
}

func TestSilhouetteSingleOccupiedCluster(t *testing.T) {
	// 所有点都在同一簇、其余簇为空：不应得到接近1的高分
	X := threeBlobs(10)
	labels := make([]int, len(X))

	if got := Silhouette(X, labels, 3); got != 0 {
		t.Errorf("expected 0 for single occupied cluster, got %v", got)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	X := threeBlobs(10)

	km1 := NewKMeans(3, 7)
	km2 := NewKMeans(3, 7)
	if err := km1.Fit(X); err != nil {
		t.Fatal(err)
	}
	if err := km2.Fit(X); err != nil {
		t.Fatal(err)
	}

	l1, l2 := km1.Predict(X), km2.Predict(X)
	for i := range l1 {
		if l1[i] != l2[i] {
			t.Fatalf("kmeans labels differ at %d", i)
		}
	}
}
