package features

import (
	"strings"

	"github.com/YuminosukeSato/calorieburn/pkg/errors"
)

// フォームの自由入力を表す選択肢
const (
	OtherCategory = "Other / Type My Own"
	NotListed     = "Not Listed"
)

// Category は運動カテゴリとその運動一覧
type Category struct {
	Name      string   `json:"name" yaml:"name"`
	Exercises []string `json:"exercises" yaml:"exercises"`
}

// Catalog はフォームに表示するカテゴリの一覧
type Catalog []Category

// DefaultCatalog はフォームの既定のカテゴリ一覧を返す
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "Cardio", Exercises: []string{"Running", "Walking", "Cycling", "Swimming", "Elliptical", "Stair Machine", "Jump Rope"}},
		{Name: "Strength", Exercises: []string{"Weightlifting", "Bodyweight Exercises", "Circuit Training", "Crossfit", "Resistance Band"}},
		{Name: "Flexibility", Exercises: []string{"Yoga", "Pilates", "Stretching"}},
		{Name: "HIIT", Exercises: []string{"Burpees", "Sprinting", "Tabata", "High Intensity Interval"}},
	}
}

// CategoryNames はカテゴリ名に自由入力の選択肢を加えたものを返す
func (c Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c)+1)
	for _, cat := range c {
		names = append(names, cat.Name)
	}
	return append(names, OtherCategory)
}

// Options はカテゴリの運動一覧に "Not Listed" を加えたものを返す
func (c Catalog) Options(category string) ([]string, bool) {
	for _, cat := range c {
		if cat.Name == category {
			out := append([]string(nil), cat.Exercises...)
			return append(out, NotListed), true
		}
	}
	return nil, false
}

// ResolveWorkout はフォームの選択状態から最終的な運動名を決める。
//
// カテゴリが "Other / Type My Own" か、運動が "Not Listed" のときは自由入力を使う。
// 結果が空でも検証は Validate に任せる。
func (c Catalog) ResolveWorkout(category, selection, custom string) (string, error) {
	if category == OtherCategory {
		return strings.TrimSpace(custom), nil
	}
	options, ok := c.Options(category)
	if !ok {
		return "", errors.NewInvalidInputError("workout_category", "unknown workout category", category)
	}
	if selection == NotListed {
		return strings.TrimSpace(custom), nil
	}
	for _, o := range options {
		if o == selection {
			return selection, nil
		}
	}
	return "", errors.NewInvalidInputError("workout_selection",
		"exercise is not in the selected category", selection)
}
