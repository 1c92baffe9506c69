package risk

import (
	"errors"
	"math"
	"testing"
	"time"

	"FinSight/internal/model"
	"FinSight/internal/synth"
)

func TestLabel_PartitionsScoredUsers(t *testing.T) {
	tbl := synth.Ledger(synth.Options{Users: 6, IncomePerUser: 10, ExpensePerUser: 10, TransferPerUser: 5})
	l, err := Label(tbl)
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if len(l.Levels) != len(l.Scores) {
		t.Fatalf("labelled %d users, scored %d", len(l.Levels), len(l.Scores))
	}
	counts := map[model.RiskLevel]int{}
	for user, lvl := range l.Levels {
		counts[lvl]++
		s := l.Scores[user]
		i := bin(l.Edges, s)
		if !(s > l.Edges[i] && s <= l.Edges[i+1]) {
			t.Errorf("user %s score %.4f outside bin %d %v", user, s, i, l.Edges)
		}
	}
	for _, lvl := range model.RiskLevels {
		if counts[lvl] != 2 {
			t.Errorf("%s users = %d, want 2", lvl, counts[lvl])
		}
	}
	if got, want := l.Levels["user-0"], model.RiskLow; got != want {
		t.Errorf("user-0 = %s, want %s", got, want)
	}
	if got, want := l.Levels["user-5"], model.RiskHigh; got != want {
		t.Errorf("user-5 = %s, want %s", got, want)
	}
	if l.Table.Len() != tbl.Len() {
		t.Errorf("kept %d rows, want %d", l.Table.Len(), tbl.Len())
	}
}

func TestLabel_DropsUnscoredUsers(t *testing.T) {
	tbl := synth.Ledger(synth.Options{Users: 5, IncomePerUser: 15, ExpensePerUser: 15})
	tbl.Rows = append(tbl.Rows, model.Transaction{
		UserID: "lonely", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 50, Type: model.TypeExpense,
	})
	l, err := Label(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := l.Level("lonely"); ok {
		t.Error("single-transaction user should be unscored")
	}
	if l.Table.Len() != tbl.Len()-1 {
		t.Errorf("kept %d rows, want %d", l.Table.Len(), tbl.Len()-1)
	}
}

func TestLabel_InsufficientData(t *testing.T) {
	tbl := synth.Ledger(synth.Options{Users: 3, IncomePerUser: 10, ExpensePerUser: 10})
	_, err := Label(tbl)
	var ide *model.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if ide.Have != 60 || ide.Need != MinLabeledRows {
		t.Errorf("got have=%d need=%d", ide.Have, ide.Need)
	}
}

func TestScore(t *testing.T) {
	s, ok := Score([]float64{10, 20, math.NaN()})
	if !ok {
		t.Fatal("expected a score")
	}
	want := math.Sqrt(50) / 15 * math.Log(3)
	if math.Abs(s-want) > 1e-12 {
		t.Errorf("Score = %v, want %v", s, want)
	}
	if _, ok := Score([]float64{10}); ok {
		t.Error("one amount should be unscored")
	}
}

func TestEdges(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   [4]float64
	}{
		{"spread", []float64{0, 3}, [4]float64{-0.003, 1, 2, 3}},
		{"constant", []float64{5, 5}, [4]float64{4.995, 4.995 + 0.01/3, 4.995 + 0.02/3, 5.005}},
		{"zero", []float64{0}, [4]float64{-0.001, -0.001 + 0.002/3, -0.001 + 0.004/3, 0.001}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Edges(tt.scores)
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Fatalf("Edges = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
