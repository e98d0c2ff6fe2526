// Package grading 加权成绩与课程统计的数值规则。
//
// 所有运算走十进制（shopspring/decimal），成绩保留 1 位小数，占比与比率保留 2 位小数，
// 舍入方式与 PostgreSQL ROUND(numeric) 一致（四舍五入，远离零）。
package grading

import "github.com/shopspring/decimal"

const (
	// DefaultWeight 课程未设置占比时平时/期末各占一半
	DefaultWeight = 0.5
	// WeightTolerance 两项占比之和与 1 的允许误差
	WeightTolerance = 0.01

	MinScore = 0.0
	MaxScore = 100.0
)

// Thresholds 及格线与优秀线
type Thresholds struct {
	Pass      float64
	Excellent float64
}

// DefaultThresholds 及格 60，优秀 90
var DefaultThresholds = Thresholds{Pass: 60, Excellent: 90}

// ScoreInRange 分数是否落在 [0, 100]
func ScoreInRange(v float64) bool {
	return v >= MinScore && v <= MaxScore
}

// WeightInRange 占比是否落在 [0, 1]
func WeightInRange(v float64) bool {
	return v >= 0 && v <= 1
}

// WeightSum 两项占比各自保留 2 位小数后的和，即落库后的实际和
func WeightSum(ordinary, final float64) float64 {
	return decimal.NewFromFloat(ordinary).Round(2).Add(decimal.NewFromFloat(final).Round(2)).InexactFloat64()
}

// WeightsBalanced 落库后的占比之和是否在 1 ± WeightTolerance 内
func WeightsBalanced(ordinary, final float64) bool {
	diff := decimal.NewFromFloat(WeightSum(ordinary, final)).Sub(decimal.NewFromInt(1)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(WeightTolerance))
}

// RoundWeight 占比保留 2 位小数
func RoundWeight(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RoundGrade 成绩保留 1 位小数
func RoundGrade(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// WeightsOrDefault 缺省占比回落到 0.5/0.5
func WeightsOrDefault(ordinary, final *float64) (float64, float64) {
	ow, fw := DefaultWeight, DefaultWeight
	if ordinary != nil {
		ow = *ordinary
	}
	if final != nil {
		fw = *final
	}
	return ow, fw
}

// FinalGrade 总评 = 平时×平时占比 + 期末×期末占比，任一分数缺失时为 nil
func FinalGrade(ordinary, final *float64, ordinaryWeight, finalWeight float64) *float64 {
	if ordinary == nil || final == nil {
		return nil
	}
	sum := decimal.NewFromFloat(*ordinary).Mul(decimal.NewFromFloat(ordinaryWeight)).
		Add(decimal.NewFromFloat(*final).Mul(decimal.NewFromFloat(finalWeight)))
	v := sum.Round(1).InexactFloat64()
	return &v
}

// Effective 有效成绩：优先总评，其次旧版单项成绩
func Effective(finalGrade, grade *float64) *float64 {
	if finalGrade != nil {
		return finalGrade
	}
	return grade
}

// Summary 单门课程的统计结果
type Summary struct {
	EnrolledCount int      `json:"enrolled_count"`
	AvgGrade      *float64 `json:"avg_grade"`
	PassRate      *float64 `json:"pass_rate"`
	ExcellentRate *float64 `json:"excellent_rate"`
}

// Summarize 根据每条选课的有效成绩计算统计值。
// 人数为 0 时比率为 nil；无成绩的选课计入分母但不计入平均分。
func Summarize(effective []*float64, th Thresholds) Summary {
	s := Summary{EnrolledCount: len(effective)}
	if len(effective) == 0 {
		return s
	}

	total := decimal.Zero
	graded, passed, excellent := 0, 0, 0
	for _, g := range effective {
		if g == nil {
			continue
		}
		graded++
		total = total.Add(decimal.NewFromFloat(*g))
		if *g >= th.Pass {
			passed++
		}
		if *g >= th.Excellent {
			excellent++
		}
	}

	if graded > 0 {
		avg := total.Div(decimal.NewFromInt(int64(graded))).Round(2).InexactFloat64()
		s.AvgGrade = &avg
	}
	pr := percent(passed, len(effective))
	er := percent(excellent, len(effective))
	s.PassRate = &pr
	s.ExcellentRate = &er
	return s
}

func percent(part, whole int) float64 {
	return decimal.NewFromInt(int64(part)).
		Div(decimal.NewFromInt(int64(whole))).
		Mul(decimal.NewFromInt(100)).
		Round(2).InexactFloat64()
}
