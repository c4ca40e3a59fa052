// Package features は学習と推論の両方で使う特徴量の準備を行う。
//
// BMIの計算、入力値の検証、列の分類、Frameへの変換をここに集約し、
// 学習時と推論時で同じ手順が使われるようにしている。
package features

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/calorieburn/core/dataframe"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
)

// 特徴量の列名
const (
	ColGender      = "Gender"
	ColWorkoutType = "Workout_Type"
	ColAge         = "Age"
	ColHeight      = "Height"
	ColWeight      = "Weight"
	ColDuration    = "Duration"
	ColHeartRate   = "Heart_Rate"
	ColBodyTemp    = "Body_Temp"
	ColBMI         = "BMI"
)

// KcalPerKgFat は体脂肪1kgあたりのエネルギー量 (kcal)
const KcalPerKgFat = 7700.0

// CategoricalColumns はワンホット符号化する列
func CategoricalColumns() []string {
	return []string{ColGender, ColWorkoutType}
}

// NumericalColumns は標準化する列
func NumericalColumns() []string {
	return []string{ColAge, ColHeight, ColWeight, ColDuration, ColHeartRate, ColBodyTemp, ColBMI}
}

// FeatureColumns は特徴量ベクトルの全列
func FeatureColumns() []string {
	return append(CategoricalColumns(), NumericalColumns()...)
}

// Record は特徴量1行分。BMI は Weight と Height から導出済み。
type Record struct {
	Gender      string
	WorkoutType string
	Age         float64
	Height      float64 // cm
	Weight      float64 // kg
	Duration    float64 // 分
	HeartRate   float64 // bpm
	BodyTemp    float64 // ℃
	BMI         float64
}

// BMI は体重(kg)と身長(cm)からBMIを計算する
func BMI(weightKg, heightCm float64) (float64, error) {
	if math.IsNaN(heightCm) || math.IsInf(heightCm, 0) || heightCm <= 0 {
		return 0, errors.NewInvalidInputError("height", "height must be a positive number", heightCm)
	}
	if math.IsNaN(weightKg) || math.IsInf(weightKg, 0) || weightKg <= 0 {
		return 0, errors.NewInvalidInputError("weight", "weight must be a positive number", weightKg)
	}
	m := heightCm / 100
	return weightKg / (m * m), nil
}

// FatLossGrams は消費カロリーを脂肪燃焼量(g)に換算する
func FatLossGrams(calories float64) float64 {
	return calories / KcalPerKgFat * 1000
}

// Input はフォームから受け取る1回分の入力
type Input struct {
	Gender      string
	Age         float64
	Height      float64
	Weight      float64
	WorkoutName string
	Duration    float64
	HeartRate   float64
	BodyTemp    float64
}

// Range は数値入力の許容範囲と既定値
type Range struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"`
}

// Contains は v が [Min, Max] に含まれるかを返す
func (r Range) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= r.Min && v <= r.Max
}

// Bounds は入力フォームで宣言された範囲
type Bounds struct {
	Age       Range    `yaml:"age"`
	Height    Range    `yaml:"height"`
	Weight    Range    `yaml:"weight"`
	Duration  Range    `yaml:"duration"`
	HeartRate Range    `yaml:"heart_rate"`
	BodyTemp  Range    `yaml:"body_temp"`
	Genders   []string `yaml:"genders"`
}

// DefaultBounds はフォームの既定の範囲を返す
func DefaultBounds() Bounds {
	return Bounds{
		Age:       Range{Min: 10, Max: 100, Default: 25},
		Height:    Range{Min: 100, Max: 250, Default: 170},
		Weight:    Range{Min: 30, Max: 200, Default: 70},
		Duration:  Range{Min: 1, Max: 300, Default: 45},
		HeartRate: Range{Min: 60, Max: 220, Default: 110},
		BodyTemp:  Range{Min: 36.0, Max: 42.0, Default: 39.5},
		Genders:   []string{"male", "female"},
	}
}

// DefaultInput は各項目を既定値で埋めた入力を返す (運動名は空)
func (b Bounds) DefaultInput() Input {
	gender := ""
	if len(b.Genders) > 0 {
		gender = b.Genders[0]
	}
	return Input{
		Gender:    gender,
		Age:       b.Age.Default,
		Height:    b.Height.Default,
		Weight:    b.Weight.Default,
		Duration:  b.Duration.Default,
		HeartRate: b.HeartRate.Default,
		BodyTemp:  b.BodyTemp.Default,
	}
}

// EmptyWorkoutMessage は運動名が空のときの利用者向けメッセージ
const EmptyWorkoutMessage = "Please enter a workout name."

// 入力項目のキー。InvalidInputError.Field とフォーム名に使う
const (
	FieldAge       = "age"
	FieldHeight    = "height"
	FieldWeight    = "weight"
	FieldDuration  = "duration"
	FieldHeartRate = "heart_rate"
	FieldBodyTemp  = "body_temp"
)

var fieldLabels = map[string]string{
	FieldAge:       "Age",
	FieldHeight:    "Height",
	FieldWeight:    "Weight",
	FieldDuration:  "Duration",
	FieldHeartRate: "Heart rate",
	FieldBodyTemp:  "Body temperature",
}

// Label は入力項目の表示名を返す。未知のキーはそのまま返す。
func Label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

// Validate は入力を範囲と照合する。失敗時は InvalidInputError を返す。
// 未知の運動名はエラーにしない（エンコーダー側で無視される）。
func Validate(in Input, b Bounds) error {
	if strings.TrimSpace(in.WorkoutName) == "" {
		return errors.NewInvalidInputError("workout_name", EmptyWorkoutMessage, in.WorkoutName)
	}

	genderOK := false
	for _, g := range b.Genders {
		if in.Gender == g {
			genderOK = true
			break
		}
	}
	if !genderOK {
		return errors.NewInvalidInputError("gender",
			fmt.Sprintf("gender must be one of %s", strings.Join(b.Genders, ", ")), in.Gender)
	}

	checks := []struct {
		field string
		value float64
		r     Range
	}{
		{FieldAge, in.Age, b.Age},
		{FieldHeight, in.Height, b.Height},
		{FieldWeight, in.Weight, b.Weight},
		{FieldDuration, in.Duration, b.Duration},
		{FieldHeartRate, in.HeartRate, b.HeartRate},
		{FieldBodyTemp, in.BodyTemp, b.BodyTemp},
	}
	for _, c := range checks {
		if !c.r.Contains(c.value) {
			return errors.NewInvalidInputError(c.field,
				fmt.Sprintf("%s must be between %g and %g", Label(c.field), c.r.Min, c.r.Max), c.value)
		}
	}
	return nil
}

// Prepare は入力を検証し、運動名を整えてBMIを付与した Record を返す
func Prepare(in Input, b Bounds) (Record, error) {
	if err := Validate(in, b); err != nil {
		return Record{}, err
	}
	bmi, err := BMI(in.Weight, in.Height)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Gender:      in.Gender,
		WorkoutType: strings.TrimSpace(in.WorkoutName),
		Age:         in.Age,
		Height:      in.Height,
		Weight:      in.Weight,
		Duration:    in.Duration,
		HeartRate:   in.HeartRate,
		BodyTemp:    in.BodyTemp,
		BMI:         bmi,
	}, nil
}

// Frame は Record の列を FeatureColumns の順で持つ Frame に変換する
func Frame(records []Record) *dataframe.Frame {
	n := len(records)
	gender := make([]string, n)
	workout := make([]string, n)
	numeric := make([][]float64, len(NumericalColumns()))
	for j := range numeric {
		numeric[j] = make([]float64, n)
	}
	for i, r := range records {
		gender[i] = r.Gender
		workout[i] = r.WorkoutType
		for j, v := range []float64{r.Age, r.Height, r.Weight, r.Duration, r.HeartRate, r.BodyTemp, r.BMI} {
			numeric[j][i] = v
		}
	}

	df := dataframe.New(n)
	// 列名は定数で重複せず、長さは n に揃えているので失敗しない
	_ = df.AddCategorical(ColGender, gender)
	_ = df.AddCategorical(ColWorkoutType, workout)
	for j, name := range NumericalColumns() {
		_ = df.AddNumeric(name, numeric[j])
	}
	return df
}
