package domain

import "encoding/json"

// Dataset is a table of string cells keyed by row id and column name.
type Dataset struct {
	Columns []string
	order   []int
	cells   map[int]map[string]string
}

func NewDataset(columns []string) *Dataset {
	return &Dataset{
		Columns: append([]string(nil), columns...),
		cells:   make(map[int]map[string]string),
	}
}

// AddRow inserts or replaces a row. Missing columns read as "".
func (d *Dataset) AddRow(id int, values map[string]string) {
	if _, ok := d.cells[id]; !ok {
		d.order = append(d.order, id)
	}
	row := make(map[string]string, len(d.Columns))
	for _, c := range d.Columns {
		row[c] = values[c]
	}
	d.cells[id] = row
}

// RowIDs returns row ids in insertion order.
func (d *Dataset) RowIDs() []int {
	return append([]int(nil), d.order...)
}

func (d *Dataset) Len() int { return len(d.order) }

func (d *Dataset) Has(id int) bool {
	_, ok := d.cells[id]
	return ok
}

func (d *Dataset) Value(id int, col string) string {
	return d.cells[id][col]
}

// Row returns a copy of the row's cells.
func (d *Dataset) Row(id int) map[string]string {
	row := make(map[string]string, len(d.Columns))
	for k, v := range d.cells[id] {
		row[k] = v
	}
	return row
}

type datasetJSON struct {
	Columns []string                  `json:"columns"`
	Order   []int                     `json:"order"`
	Rows    map[int]map[string]string `json:"rows"`
}

func (d *Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(datasetJSON{Columns: d.Columns, Order: d.order, Rows: d.cells})
}

func (d *Dataset) UnmarshalJSON(b []byte) error {
	var v datasetJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	d.Columns = v.Columns
	d.order = v.Order
	d.cells = v.Rows
	if d.cells == nil {
		d.cells = make(map[int]map[string]string)
	}
	return nil
}
