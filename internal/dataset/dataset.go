// Package dataset loads the exercise and calories tables and joins them into
// training records.
package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/calorieburn/core/dataframe"
	"github.com/YuminosukeSato/calorieburn/internal/features"
	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"github.com/YuminosukeSato/calorieburn/pkg/log"
)

// Column names in the source CSV files.
const (
	ColUserID   = "User_ID"
	ColCalories = "Calories"
)

// Dataset is the joined training table.
type Dataset struct {
	Records  []features.Record
	Calories []float64
}

// Len returns the number of joined rows.
func (d *Dataset) Len() int { return len(d.Records) }

// Frame returns the feature frame of the rows at idx. A nil idx selects all rows.
func (d *Dataset) Frame(idx []int) *dataframe.Frame {
	if idx == nil {
		return features.Frame(d.Records)
	}
	recs := make([]features.Record, len(idx))
	for k, i := range idx {
		recs[k] = d.Records[i]
	}
	return features.Frame(recs)
}

// Target returns the calories of the rows at idx. A nil idx selects all rows.
func (d *Dataset) Target(idx []int) []float64 {
	if idx == nil {
		return append([]float64(nil), d.Calories...)
	}
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = d.Calories[i]
	}
	return out
}

// WorkoutOptions returns the sorted distinct workout types.
func (d *Dataset) WorkoutOptions() []string {
	opts, _ := d.Frame(nil).Unique(features.ColWorkoutType)
	return opts
}

type exerciseRow struct {
	id  string
	rec features.Record
}

// Load reads both files and inner-joins them on User_ID. Rows keep the order
// of the exercise file; an id present several times in both files yields one
// row per matching pair. BMI is derived from Weight and Height.
func Load(ctx context.Context, exercisePath, caloriesPath string) (*Dataset, error) {
	logger := log.GetLoggerWithName("dataset")

	exercise, err := readExercise(ctx, exercisePath)
	if err != nil {
		return nil, err
	}
	calories, err := readCalories(ctx, caloriesPath)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	for _, row := range exercise {
		for _, c := range calories[row.id] {
			ds.Records = append(ds.Records, row.rec)
			ds.Calories = append(ds.Calories, c)
		}
	}
	if ds.Len() == 0 {
		return nil, errors.NewDatasetError(exercisePath, "join on "+ColUserID+" produced no rows", nil)
	}

	logger.Info("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SamplesKey, ds.Len(),
		"exercise.rows", len(exercise),
		"calories.ids", len(calories),
	)
	return ds, nil
}

func readExercise(ctx context.Context, path string) ([]exerciseRow, error) {
	required := []string{
		ColUserID, features.ColGender, features.ColAge, features.ColHeight, features.ColWeight,
		features.ColDuration, features.ColHeartRate, features.ColBodyTemp, features.ColWorkoutType,
	}

	var rows []exerciseRow
	err := readTable(ctx, path, required, func(line int, get func(string) string) error {
		var rec features.Record
		rec.Gender = get(features.ColGender)
		rec.WorkoutType = strings.TrimSpace(get(features.ColWorkoutType))

		nums := []struct {
			col string
			dst *float64
		}{
			{features.ColAge, &rec.Age},
			{features.ColHeight, &rec.Height},
			{features.ColWeight, &rec.Weight},
			{features.ColDuration, &rec.Duration},
			{features.ColHeartRate, &rec.HeartRate},
			{features.ColBodyTemp, &rec.BodyTemp},
		}
		for _, n := range nums {
			v, err := parseFloat(get(n.col))
			if err != nil {
				return errors.NewDatasetError(path, "line "+strconv.Itoa(line)+": column "+n.col, err)
			}
			*n.dst = v
		}

		bmi, err := features.BMI(rec.Weight, rec.Height)
		if err != nil {
			return errors.NewDatasetError(path, "line "+strconv.Itoa(line), err)
		}
		rec.BMI = bmi

		rows = append(rows, exerciseRow{id: strings.TrimSpace(get(ColUserID)), rec: rec})
		return nil
	})
	return rows, err
}

func readCalories(ctx context.Context, path string) (map[string][]float64, error) {
	out := make(map[string][]float64)
	err := readTable(ctx, path, []string{ColUserID, ColCalories}, func(line int, get func(string) string) error {
		v, err := parseFloat(get(ColCalories))
		if err != nil {
			return errors.NewDatasetError(path, "line "+strconv.Itoa(line)+": column "+ColCalories, err)
		}
		id := strings.TrimSpace(get(ColUserID))
		out[id] = append(out[id], v)
		return nil
	})
	return out, err
}

// readTable streams a headed CSV file, calling fn for each data row with a
// by-name accessor. Column order in the file is free.
func readTable(ctx context.Context, path string, required []string, fn func(line int, get func(string) string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewDatasetError(path, "cannot open file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return errors.NewDatasetError(path, "cannot read header", err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		// spreadsheet exports may start with a UTF-8 BOM
		pos[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, col := range required {
		if _, ok := pos[col]; !ok {
			return errors.NewDatasetError(path, "missing required column "+col, nil)
		}
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "dataset load cancelled")
		}
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return errors.NewDatasetError(path, "malformed CSV", err)
		}
		get := func(col string) string { return record[pos[col]] }
		if err := fn(line, get); err != nil {
			return err
		}
	}
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if err := errors.CheckScalar("parse", v); err != nil {
		return 0, err
	}
	return v, nil
}
