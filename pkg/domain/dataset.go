package domain

// Dataset is the immutable, ordered table of records shared by every session.
// The backing slice is never exposed for mutation.
type Dataset struct {
	records []Record
}

// NewDataset copies the supplied records into a read-only dataset.
func NewDataset(records []Record) Dataset {
	cpy := make([]Record, len(records))
	copy(cpy, records)
	return Dataset{records: cpy}
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.records) }

// At returns the record at position i.
func (d Dataset) At(i int) Record { return d.records[i] }

// Records returns a copy of all records in source order.
func (d Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// SpeciesCounts tallies records per species label.
func (d Dataset) SpeciesCounts() map[Species]int {
	counts := make(map[Species]int)
	for _, rec := range d.records {
		counts[rec.Species]++
	}
	return counts
}
