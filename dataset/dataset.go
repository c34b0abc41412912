// Package dataset provides a labeled multi-variable tensor container.
//
// A Dataset maps variable names to dense tensors whose dimensions are named
// axes. Axes carry human-readable coordinate labels and are shared between
// variables: every variable that references an axis must agree on its
// length. This is the input container for coupled factorization, where
// several tensors of different dimensionality are decomposed jointly over
// their shared axes.
//
// Example:
//
//	d := dataset.New()
//	_ = d.AddAxis("month", []string{"January", "February"})
//	_ = d.AddAxis("state", []string{"Ohio", "Utah", "Wyoming"})
//	t, _ := tensor.Ones(2, 3)
//	_ = d.AddVariable("sales", t, "month", "state")
//
// Once handed to the factorization core a Dataset must not be mutated;
// the core caches unfoldings computed from it at construction time.
package dataset

import (
	"github.com/ezoic/tensorpack/core/tensor"
	"github.com/ezoic/tensorpack/pkg/errors"
)

// Axis is a named dimension with ordered coordinate labels.
type Axis struct {
	Name   string
	Labels []string
}

// Len returns the number of coordinate positions on the axis.
func (a Axis) Len() int {
	return len(a.Labels)
}

type variable struct {
	axes []string
	data *tensor.Tensor
}

// Dataset is a collection of axis-labeled tensors. Axes are enumerated in
// declaration order and variables in insertion order; both orders are part
// of the contract because the factorization core derives its concatenation
// layout from them.
type Dataset struct {
	axes      map[string]Axis
	axisOrder []string
	vars      map[string]variable
	varOrder  []string
}

// New creates an empty dataset.
func New() *Dataset {
	return &Dataset{
		axes: make(map[string]Axis),
		vars: make(map[string]variable),
	}
}

// AddAxis declares an axis with its coordinate labels. Axis names are
// unique within a dataset.
func (d *Dataset) AddAxis(name string, labels []string) error {
	if name == "" {
		return errors.NewValueError("Dataset.AddAxis", "axis name must not be empty")
	}
	if len(labels) == 0 {
		return errors.NewValueError("Dataset.AddAxis", "axis must have at least one label")
	}
	if _, ok := d.axes[name]; ok {
		return errors.NewValueError("Dataset.AddAxis", "duplicate axis name "+name)
	}
	d.axes[name] = Axis{Name: name, Labels: append([]string{}, labels...)}
	d.axisOrder = append(d.axisOrder, name)
	return nil
}

// AddVariable adds a named tensor whose dimensions are the given axes, in
// order. The tensor's dimensionality must match the number of axes and each
// dimension length must match the declared axis length.
func (d *Dataset) AddVariable(name string, data *tensor.Tensor, axes ...string) error {
	if name == "" {
		return errors.NewValueError("Dataset.AddVariable", "variable name must not be empty")
	}
	if data == nil {
		return errors.NewModelError("Dataset.AddVariable", "nil tensor for "+name, errors.ErrEmptyData)
	}
	if _, ok := d.vars[name]; ok {
		return errors.NewValueError("Dataset.AddVariable", "duplicate variable name "+name)
	}

	shape := data.Shape()
	if len(shape) != len(axes) {
		return errors.NewDimensionError("Dataset.AddVariable", len(axes), len(shape), 0)
	}

	seen := make(map[string]bool, len(axes))
	for i, axisName := range axes {
		ax, ok := d.axes[axisName]
		if !ok {
			return errors.NewValueError("Dataset.AddVariable", "unknown axis "+axisName)
		}
		if seen[axisName] {
			return errors.NewValueError("Dataset.AddVariable", "axis "+axisName+" listed twice")
		}
		seen[axisName] = true
		if shape[i] != ax.Len() {
			return errors.NewDimensionError("Dataset.AddVariable", ax.Len(), shape[i], i)
		}
	}

	d.vars[name] = variable{axes: append([]string{}, axes...), data: data}
	d.varOrder = append(d.varOrder, name)
	return nil
}

// Axes returns all axis names in declaration order.
func (d *Dataset) Axes() []string {
	return append([]string{}, d.axisOrder...)
}

// Vars returns all variable names in insertion order.
func (d *Dataset) Vars() []string {
	return append([]string{}, d.varOrder...)
}

// NumVars returns the number of variables.
func (d *Dataset) NumVars() int {
	return len(d.varOrder)
}

// Axis returns the named axis.
func (d *Dataset) Axis(name string) (Axis, error) {
	ax, ok := d.axes[name]
	if !ok {
		return Axis{}, errors.NewValueError("Dataset.Axis", "unknown axis "+name)
	}
	return ax, nil
}

// AxisLen returns the length of the named axis.
func (d *Dataset) AxisLen(name string) (int, error) {
	ax, err := d.Axis(name)
	if err != nil {
		return 0, err
	}
	return ax.Len(), nil
}

// Var returns the tensor of the named variable.
func (d *Dataset) Var(name string) (*tensor.Tensor, error) {
	v, ok := d.vars[name]
	if !ok {
		return nil, errors.NewValueError("Dataset.Var", "unknown variable "+name)
	}
	return v.data, nil
}

// VarAxes returns the ordered axis names of the named variable.
func (d *Dataset) VarAxes(name string) ([]string, error) {
	v, ok := d.vars[name]
	if !ok {
		return nil, errors.NewValueError("Dataset.VarAxes", "unknown variable "+name)
	}
	return append([]string{}, v.axes...), nil
}

// VarsWithAxis returns, in variable insertion order, the names of every
// variable whose axis list contains the given axis. Both the unfolding and
// the Khatri-Rao construction concatenate per-variable blocks in exactly
// this order, so the two stay row/column compatible.
func (d *Dataset) VarsWithAxis(axis string) []string {
	var names []string
	for _, name := range d.varOrder {
		for _, a := range d.vars[name].axes {
			if a == axis {
				names = append(names, name)
				break
			}
		}
	}
	return names
}
