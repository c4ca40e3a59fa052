// Package dataframe provides a minimal column-oriented table with named
// numeric and string columns.
//
// It exists so that preprocessing can select columns by name, the same way at
// fit time and at predict time, instead of relying on column positions.
package dataframe

import (
	"sort"

	"github.com/YuminosukeSato/calorieburn/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Kind is the storage type of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Frame is an immutable-by-convention table. Columns are appended with
// AddNumeric / AddCategorical and then only read.
type Frame struct {
	nRows       int
	names       []string
	numeric     map[string][]float64
	categorical map[string][]string
}

// New returns an empty frame with nRows rows.
func New(nRows int) *Frame {
	return &Frame{
		nRows:       nRows,
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]string),
	}
}

// NRows returns the number of rows.
func (f *Frame) NRows() int { return f.nRows }

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether the frame has a column called name.
func (f *Frame) Has(name string) bool {
	_, num := f.numeric[name]
	_, cat := f.categorical[name]
	return num || cat
}

// KindOf returns the kind of column name.
func (f *Frame) KindOf(name string) (Kind, error) {
	if _, ok := f.numeric[name]; ok {
		return Numeric, nil
	}
	if _, ok := f.categorical[name]; ok {
		return Categorical, nil
	}
	return 0, errors.NewValidationError("column", "no such column", name)
}

// AddNumeric appends a numeric column. The slice is copied.
func (f *Frame) AddNumeric(name string, values []float64) error {
	if err := f.checkNew(name, len(values)); err != nil {
		return err
	}
	f.numeric[name] = append([]float64(nil), values...)
	f.names = append(f.names, name)
	return nil
}

// AddCategorical appends a string column. The slice is copied.
func (f *Frame) AddCategorical(name string, values []string) error {
	if err := f.checkNew(name, len(values)); err != nil {
		return err
	}
	f.categorical[name] = append([]string(nil), values...)
	f.names = append(f.names, name)
	return nil
}

func (f *Frame) checkNew(name string, n int) error {
	if name == "" {
		return errors.NewValidationError("column", "column name must not be empty", name)
	}
	if f.Has(name) {
		return errors.NewValidationError("column", "duplicate column", name)
	}
	if n != f.nRows {
		return errors.NewDimensionError("Frame.Add("+name+")", f.nRows, n, 0)
	}
	return nil
}

// Numeric returns the values of a numeric column. The returned slice must not
// be modified.
func (f *Frame) Numeric(name string) ([]float64, error) {
	v, ok := f.numeric[name]
	if !ok {
		if _, isCat := f.categorical[name]; isCat {
			return nil, errors.NewValidationError("column", "column is categorical, expected numeric", name)
		}
		return nil, errors.NewValidationError("column", "no such column", name)
	}
	return v, nil
}

// Categorical returns the values of a string column. The returned slice must
// not be modified.
func (f *Frame) Categorical(name string) ([]string, error) {
	v, ok := f.categorical[name]
	if !ok {
		if _, isNum := f.numeric[name]; isNum {
			return nil, errors.NewValidationError("column", "column is numeric, expected categorical", name)
		}
		return nil, errors.NewValidationError("column", "no such column", name)
	}
	return v, nil
}

// NumericMatrix stacks the named numeric columns into an n × len(cols) matrix.
func (f *Frame) NumericMatrix(cols []string) (*mat.Dense, error) {
	if f.nRows == 0 || len(cols) == 0 {
		return nil, errors.NewModelError("Frame.NumericMatrix", "empty data", errors.ErrEmptyData)
	}
	out := mat.NewDense(f.nRows, len(cols), nil)
	for j, name := range cols {
		v, err := f.Numeric(name)
		if err != nil {
			return nil, err
		}
		for i, x := range v {
			out.Set(i, j, x)
		}
	}
	return out, nil
}

// Take returns a new frame with the rows at idx, in that order.
func (f *Frame) Take(idx []int) (*Frame, error) {
	out := New(len(idx))
	for _, i := range idx {
		if i < 0 || i >= f.nRows {
			return nil, errors.NewValueError("Frame.Take", "row index out of range")
		}
	}
	for _, name := range f.names {
		if v, ok := f.numeric[name]; ok {
			col := make([]float64, len(idx))
			for k, i := range idx {
				col[k] = v[i]
			}
			out.numeric[name] = col
		} else {
			src := f.categorical[name]
			col := make([]string, len(idx))
			for k, i := range idx {
				col[k] = src[i]
			}
			out.categorical[name] = col
		}
		out.names = append(out.names, name)
	}
	return out, nil
}

// Unique returns the sorted distinct values of a string column.
func (f *Frame) Unique(name string) ([]string, error) {
	v, err := f.Categorical(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, 16)
	var out []string
	for _, s := range v {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}
