package processor

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"PlayerProfiling/src/utils"
)

// 聚类散点图的簇配色，超出后循环使用
var clusterPalette = []color.RGBA{
	{R: 228, G: 26, B: 28, A: 255},
	{R: 55, G: 126, B: 184, A: 255},
	{R: 77, G: 175, B: 74, A: 255},
	{R: 152, G: 78, B: 163, A: 255},
	{R: 255, G: 127, B: 0, A: 255},
	{R: 166, G: 86, B: 40, A: 255},
	{R: 247, G: 129, B: 191, A: 255},
	{R: 153, G: 153, B: 153, A: 255},
}

// Summary 汇总回归指标、系数表与聚类选K结果为可读文本
func Summary(reg *RegressionSummary, cl *ClusterResult) string {
	var b strings.Builder

	b.WriteString("===== 回归结果 =====\n")
	fmt.Fprintf(&b, "训练/测试: %d/%d 行\n", reg.TrainRows, reg.TestRows)
	fmt.Fprintf(&b, "R²  = %.4f\n", reg.R2)
	fmt.Fprintf(&b, "RMSE = %.4f\n", reg.RMSE)
	fmt.Fprintf(&b, "截距 = %.4f\n", reg.Intercept)
	b.WriteString("各特征系数:\n")
	for i, name := range reg.Features {
		fmt.Fprintf(&b, "  %-18s %+.4f\n", name, reg.Coef[i])
	}

	b.WriteString("===== 聚类结果 =====\n")
	fmt.Fprintf(&b, "最优K = %d (轮廓系数 %.4f)\n", cl.K, cl.Silhouette)
	b.WriteString("候选K得分:\n")
	ks := make([]int, 0, len(cl.Scores))
	for k := range cl.Scores {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	for _, k := range ks {
		fmt.Fprintf(&b, "  K=%d: %.4f\n", k, cl.Scores[k])
	}
	return b.String()
}

// ClusterSamples 按簇编号升序列出每簇的示例行(身份列+关键统计列)
func ClusterSamples(rows dataframe.DataFrame, cl *ClusterResult, sampleCols []string, perCluster int) string {
	if perCluster <= 0 {
		perCluster = 5
	}

	// 只展示确实存在的列
	var cols []string
	for _, c := range sampleCols {
		if utils.HasColumn(rows, c) {
			cols = append(cols, c)
		}
	}

	var b strings.Builder
	for k := 0; k < cl.K; k++ {
		var idxs []int
		for i, l := range cl.Labels {
			if l == k {
				idxs = append(idxs, i)
				if len(idxs) == perCluster {
					break
				}
			}
		}

		memberCount := 0
		for _, l := range cl.Labels {
			if l == k {
				memberCount++
			}
		}

		fmt.Fprintf(&b, "----- 簇 %d (%d名球员) -----\n", k, memberCount)
		if len(idxs) == 0 {
			b.WriteString("(空)\n")
			continue
		}

		sub := rows.Subset(idxs)
		if len(cols) > 0 {
			sub = sub.Select(cols)
		}
		b.WriteString(sub.String())
		b.WriteString("\n")
	}
	return b.String()
}

// SavePlot 将聚类结果绘制为主成分空间的散点图并保存
func SavePlot(cl *ClusterResult, path string) error {
	p := plot.New()
	p.Title.Text = "Player Clusters (PCA projection)"
	p.X.Label.Text = "PC1"
	p.Y.Label.Text = "PC2"

	for k := 0; k < cl.K; k++ {
		pts := make(plotter.XYs, 0)
		for i, l := range cl.Labels {
			if l == k {
				pts = append(pts, plotter.XY{X: cl.Proj[i][0], Y: cl.Proj[i][1]})
			}
		}
		if len(pts) == 0 {
			continue
		}

		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("绘制簇%d失败: %w", k, err)
		}
		s.Color = clusterPalette[k%len(clusterPalette)]
		s.Shape = draw.CircleGlyph{}
		s.Radius = vg.Points(2.5)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("cluster %d", k), s)
	}

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("保存散点图失败: %w", err)
	}
	return nil
}

// SaveExcel 将带簇标注与投影坐标的球员表保存为xlsx
func SaveExcel(rows dataframe.DataFrame, cl *ClusterResult, path string) error {
	labels := make([]int, len(cl.Labels))
	copy(labels, cl.Labels)

	pc1 := make([]float64, len(cl.Proj))
	pc2 := make([]float64, len(cl.Proj))
	for i, xy := range cl.Proj {
		pc1[i] = xy[0]
		pc2[i] = xy[1]
	}

	annotated := rows.
		Mutate(series.New(labels, series.Int, "cluster")).
		Mutate(series.New(pc1, series.Float, "pc1")).
		Mutate(series.New(pc2, series.Float, "pc2"))
	if annotated.Err != nil {
		return fmt.Errorf("标注聚类列失败: %w", annotated.Err)
	}

	return utils.SaveToExcel(annotated, path)
}
