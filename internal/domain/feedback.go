package domain

import "sort"

// Marks is one iteration of user feedback: row id -> column -> marked as
// erroneous.
type Marks map[int]map[string]bool

// RowMarked reports whether any column of row is flagged.
func (m Marks) RowMarked(row int) bool {
	for _, v := range m[row] {
		if v {
			return true
		}
	}
	return false
}

// MarkedRows returns every row with at least one flagged column.
func (m Marks) MarkedRows() RowSet {
	out := make(RowSet)
	for row := range m {
		if m.RowMarked(row) {
			out.Add(row)
		}
	}
	return out
}

// Complete returns marks with an explicit entry for every (row, column) of
// rows and cols. Cells left out of m read as unmarked.
func (m Marks) Complete(rows []int, cols []string) Marks {
	out := make(Marks, len(rows))
	for _, row := range rows {
		cells := make(map[string]bool, len(cols))
		for _, col := range cols {
			cells[col] = m[row][col]
		}
		out[row] = cells
	}
	return out
}

// CellMark is the effective mark of one cell at some iteration.
type CellMark struct {
	Row    int    `json:"row"`
	Col    string `json:"col"`
	Marked bool   `json:"marked"`
}

// CellFeedback is one recorded mark of a single cell.
type CellFeedback struct {
	IterNum     int     `json:"iter_num"`
	Marked      bool    `json:"marked"`
	ElapsedTime float64 `json:"elapsed_time"`
}

// FeedbackHistory is the append-only per-cell mark history of a run. Only
// rows present in an iteration's feedback get an entry for it; reads carry
// the most recent prior mark forward.
type FeedbackHistory struct {
	Cells map[int]map[string][]CellFeedback `json:"cells"`
}

func NewFeedbackHistory() *FeedbackHistory {
	return &FeedbackHistory{Cells: make(map[int]map[string][]CellFeedback)}
}

// Record appends an iteration of marks.
func (h *FeedbackHistory) Record(marks Marks, iter int, elapsed float64) {
	if h.Cells == nil {
		h.Cells = make(map[int]map[string][]CellFeedback)
	}
	for row, cols := range marks {
		if h.Cells[row] == nil {
			h.Cells[row] = make(map[string][]CellFeedback)
		}
		for col, marked := range cols {
			h.Cells[row][col] = append(h.Cells[row][col], CellFeedback{IterNum: iter, Marked: marked, ElapsedTime: elapsed})
		}
	}
}

// Marked returns the most recent mark of (row, col) at or before iter, or
// false if the cell was never marked by then.
func (h *FeedbackHistory) Marked(row int, col string, iter int) bool {
	entries := h.Cells[row][col]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].IterNum > iter })
	if i == 0 {
		return false
	}
	return entries[i-1].Marked
}

// At reconstructs the effective marks of every known row at iter.
func (h *FeedbackHistory) At(iter int) Marks {
	out := make(Marks, len(h.Cells))
	for row, cols := range h.Cells {
		m := make(map[string]bool, len(cols))
		for col := range cols {
			m[col] = h.Marked(row, col, iter)
		}
		out[row] = m
	}
	return out
}

// View lists the effective mark of every (row, column) of rows and cols at
// iter, row-major in the given order.
func (h *FeedbackHistory) View(rows []int, cols []string, iter int) []CellMark {
	out := make([]CellMark, 0, len(rows)*len(cols))
	for _, row := range rows {
		for _, col := range cols {
			out = append(out, CellMark{Row: row, Col: col, Marked: h.Marked(row, col, iter)})
		}
	}
	return out
}

// SampleRecord is the set of rows shown in one iteration.
type SampleRecord struct {
	IterNum     int     `json:"iter_num"`
	Rows        []int   `json:"value"`
	ElapsedTime float64 `json:"elapsed_time"`
}

// SampleHistory is the ordered, append-only list of shown samples.
type SampleHistory []SampleRecord

// Window returns the union of the sample at index i (0-based) and the
// previous back samples. back < 0 means every prior sample.
func (h SampleHistory) Window(i, back int) RowSet {
	from := 0
	if back >= 0 && i-back > 0 {
		from = i - back
	}
	out := make(RowSet)
	for k := from; k <= i && k < len(h); k++ {
		for _, r := range h[k].Rows {
			out.Add(r)
		}
	}
	return out
}

// StatedHypothesis is what the user reported believing at an iteration.
// Index 0 of a history is the statement made before the first sample.
type StatedHypothesis struct {
	IterNum     int     `json:"iter_num"`
	Hypothesis  string  `json:"value"`
	Comment     string  `json:"comment,omitempty"`
	ElapsedTime float64 `json:"elapsed_time"`
}
