package domain

// FilteredView is an ordered index list into a dataset; rows are not copied.
type FilteredView struct {
	dataset Dataset
	indices []int
}

// Len returns the number of rows in the view.
func (v FilteredView) Len() int { return len(v.indices) }

// Empty reports whether no row survived the filter.
func (v FilteredView) Empty() bool { return len(v.indices) == 0 }

// At returns the i-th surviving record.
func (v FilteredView) At(i int) Record { return v.dataset.At(v.indices[i]) }

// Indices returns the dataset positions of the surviving rows.
func (v FilteredView) Indices() []int {
	out := make([]int, len(v.indices))
	copy(out, v.indices)
	return out
}

// Records materialises the surviving rows in source order.
func (v FilteredView) Records() []Record {
	out := make([]Record, len(v.indices))
	for i, idx := range v.indices {
		out[i] = v.dataset.At(idx)
	}
	return out
}
