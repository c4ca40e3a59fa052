// Package calorieburn estimates the calories burned during a workout session
// and the equivalent body-fat loss.
//
// A trained artifact holds a preprocessing pipeline (standard scaling of the
// numeric inputs and one-hot encoding of gender and workout type, with unseen
// categories ignored) followed by a 100-tree random forest regressor.
//
// # Commands
//
//   - cmd/calorie-train: joins exercise.csv and calories.csv, fits the
//     pipeline on an 80/20 split (seed 42), reports R² and writes the artifact
//   - cmd/calorie-web: serves the input form and a JSON API on a local address
//   - cmd/calorie-predict: prints a single estimate from command-line flags
//
// # Quick Start
//
//	go run ./cmd/calorie-train -exercise exercise.csv -calories calories.csv
//	go run ./cmd/calorie-predict -workout Running -duration 30 -heart-rate 130
//	go run ./cmd/calorie-web -addr 127.0.0.1:8501
//
// # Packages
//
//   - internal/features: feature schema, BMI, input validation, workout catalog
//   - internal/dataset: CSV loading and the id join
//   - internal/trainer: split, fit, evaluate, save
//   - internal/artifact: gob persistence of the fitted bundle
//   - internal/predictor: validated, cached single-row inference
//   - internal/web: gin handlers and the HTML form
//   - preprocessing, sklearn/compose, sklearn/tree, sklearn/ensemble,
//     sklearn/pipeline, sklearn/model_selection: the estimators
//   - metrics: R², MAE, RMSE
//   - core/dataframe: a small column store keyed by column name
//   - pkg/errors, pkg/log: structured errors and zerolog-based logging
//
// 1 kg of body fat is taken to be 7700 kcal, so fat loss in grams is
// calories / 7700 * 1000.
package calorieburn
