package service

import (
	"strconv"
	"testing"
	"time"

	"contentieux/internal/aggregate"
	"contentieux/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleTotals() *aggregate.PerEntityTotals {
	douanes := "Douanes"
	impots := "Impôts"
	centre := "Centre Nord"

	return &aggregate.PerEntityTotals{
		Pooled: aggregate.PooledTotals{
			Collected:  decimal.NewFromInt(1_000_000),
			Indicator:  decimal.NewFromInt(100_000),
			LegalFund:  decimal.NewFromInt(90_000),
			Treasury:   decimal.NewFromInt(135_000),
			ChiefsPool: decimal.NewFromInt(101_250),
			Seizing:    decimal.NewFromInt(236_250),
			Mutual:     decimal.NewFromInt(33_750),
			CommonFund: decimal.NewFromInt(202_500),
			Incentive:  decimal.NewFromInt(101_250),
		},
		ByAgent: map[int64]*aggregate.AgentTotals{
			7: {
				Agent:      domain.AgentRef{ID: 7, FullName: "Awa Diallo", Service: &douanes, Center: &centre},
				ChiefShare: decimal.NewFromInt(50_625),
				Total:      decimal.NewFromInt(50_625),
				Shares:     1,
			},
			3: {
				Agent:        domain.AgentRef{ID: 3, FullName: "Moussa Traoré", Service: &impots},
				SeizingShare: decimal.NewFromInt(236_250),
				Total:        decimal.NewFromInt(236_250),
				Shares:       1,
			},
		},
		ByService: map[string]*aggregate.GroupTotals{
			"Douanes": {Key: "Douanes", Collected: decimal.NewFromInt(1_000_000), ChiefsPool: decimal.NewFromInt(101_250), Seizing: decimal.NewFromInt(236_250), Payments: 1},
		},
		ByCenter: map[string]*aggregate.GroupTotals{
			"Centre Nord": {Key: "Centre Nord", Collected: decimal.NewFromInt(1_000_000), ChiefsPool: decimal.NewFromInt(101_250), Seizing: decimal.NewFromInt(236_250), Payments: 1},
		},
		Payments: 1,
	}
}

// extractTotalsBlock reads the label/amount pairs of the pooled totals block
// at the bottom of a sheet.
func extractTotalsBlock(t *testing.T, f *excelize.File) map[string]float64 {
	t.Helper()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}

	block := make(map[string]float64)
	inBlock := false
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if row[0] == "Montant encaissé" {
			inBlock = true
		}
		if !inBlock || len(row) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			continue
		}
		block[row[0]] = v
	}
	return block
}

func TestBuildRevenueWorkbook_TotalsBlockIdenticalAcrossViews(t *testing.T) {
	totals := sampleTotals()

	blocks := make(map[ReportView]map[string]float64)
	for _, view := range []ReportView{ReportViewAgents, ReportViewServices, ReportViewCenters} {
		f, err := buildRevenueWorkbook(view, totals)
		if err != nil {
			t.Fatalf("buildRevenueWorkbook(%s): %v", view, err)
		}
		blocks[view] = extractTotalsBlock(t, f)
	}

	want := map[string]float64{
		"Montant encaissé":      1_000_000,
		"Part de l'indicateur":  100_000,
		"Fonds juridique":       90_000,
		"Trésor":                135_000,
		"Part des chefs":        101_250,
		"Part des saisissants":  236_250,
		"Mutuelle":              33_750,
		"Fonds commun":          202_500,
		"Fonds d'intéressement": 101_250,
	}

	for view, block := range blocks {
		if len(block) != len(want) {
			t.Fatalf("view %s: expected %d totals rows, got %d", view, len(want), len(block))
		}
		for label, amount := range want {
			if block[label] != amount {
				t.Errorf("view %s: %s = %v, want %v", view, label, block[label], amount)
			}
		}
	}
}

func TestBuildRevenueWorkbook_AgentRowsSorted(t *testing.T) {
	f, err := buildRevenueWorkbook(ReportViewAgents, sampleTotals())
	if err != nil {
		t.Fatalf("buildRevenueWorkbook: %v", err)
	}

	first, err := f.GetCellValue("Agents", "A2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	second, err := f.GetCellValue("Agents", "A3")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}

	// sorted by agent id: 3 before 7
	if first != "Moussa Traoré" {
		t.Errorf("Expected first row 'Moussa Traoré', got '%s'", first)
	}
	if second != "Awa Diallo" {
		t.Errorf("Expected second row 'Awa Diallo', got '%s'", second)
	}
}

func TestBuildRevenueWorkbook_UnknownView(t *testing.T) {
	_, err := buildRevenueWorkbook(ReportView("bogus"), sampleTotals())
	if err == nil {
		t.Fatal("Expected error for unknown view")
	}
}

func TestHumanizeFrAgo(t *testing.T) {
	now := time.Now()

	cases := []struct {
		in   time.Time
		want string
	}{
		{now, "à l'instant"},
		{now.Add(-1 * time.Minute), "il y a 1 minute"},
		{now.Add(-5 * time.Minute), "il y a 5 minutes"},
		{now.Add(-1 * time.Hour), "il y a 1 heure"},
		{now.Add(-3 * time.Hour), "il y a 3 heures"},
		{now.Add(-24 * time.Hour), "il y a 1 jour"},
		{now.Add(-72 * time.Hour), "il y a 3 jours"},
	}

	for _, c := range cases {
		if got := humanizeFrAgo(c.in); got != c.want {
			t.Errorf("humanizeFrAgo(%v) = %q, want %q", c.in, got, c.want)
		}
	}

	old := now.Add(-40 * 24 * time.Hour)
	if got := humanizeFrAgo(old); got != old.Format("02/01/2006 15:04") {
		t.Errorf("Expected absolute date for old timestamps, got %q", got)
	}
}
