package service

import (
	"github.com/Harshitk-cp/duo/internal/domain"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func dataset(columns []string, rows ...[]string) *domain.Dataset {
	d := domain.NewDataset(columns)
	for id, r := range rows {
		values := make(map[string]string, len(columns))
		for i, c := range columns {
			values[c] = r[i]
		}
		d.AddRow(id, values)
	}
	return d
}

// toyData has one A => B violation (row 2) and one C => D violation
// (row 3, resolved by the clean copy).
func toyData() (dirty, clean *domain.Dataset) {
	cols := []string{"A", "B", "C", "D"}
	dirty = dataset(cols,
		[]string{"a1", "b1", "c1", "d1"},
		[]string{"a1", "b1", "c1", "d1"},
		[]string{"a1", "b2", "c2", "d2"},
		[]string{"a2", "b3", "c2", "d3"},
		[]string{"a2", "b3", "c3", "d4"},
		[]string{"a3", "b4", "c3", "d4"},
		[]string{"a3", "b4", "c4", "d5"},
		[]string{"a3", "b4", "c4", "d5"},
	)
	clean = dataset(cols,
		[]string{"a1", "b1", "c1", "d1"},
		[]string{"a1", "b1", "c1", "d1"},
		[]string{"a1", "b1", "c2", "d2"},
		[]string{"a2", "b3", "c2", "d2"},
		[]string{"a2", "b3", "c3", "d4"},
		[]string{"a3", "b4", "c3", "d4"},
		[]string{"a3", "b4", "c4", "d5"},
		[]string{"a3", "b4", "c4", "d5"},
	)
	return dirty, clean
}

// toySpace composes (A) => B and (C) => D over the toy data.
func toySpace() (*domain.HypothesisSpace, *domain.Dataset) {
	dirty, clean := toyData()
	space, err := ComposeHypothesisSpace(ComposeInput{
		Primitives: []*domain.Hypothesis{
			NewHypothesis(dirty, clean, domain.MustParseFD("(A) => B")),
			NewHypothesis(dirty, clean, domain.MustParseFD("(C) => D")),
		},
		Dirty:         dirty,
		Clean:         clean,
		MaxAntecedent: 3,
	})
	if err != nil {
		panic(err)
	}
	return space, dirty
}
