package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"contentieux/internal/aggregate"
	"contentieux/internal/clients"
	"contentieux/internal/domain"
	"contentieux/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ReportView selects which derived index of an aggregation run the workbook
// lays out. Every view ends with the same pooled totals block.
type ReportView string

const (
	ReportViewAgents   ReportView = "agents"
	ReportViewServices ReportView = "services"
	ReportViewCenters  ReportView = "centers"
)

type ReportStatus struct {
	Key      string                 `json:"key"`
	Type     string                 `json:"type"`
	AgentID  int64                  `json:"agent_id"`
	Filters  map[string]interface{} `json:"filters"`
	Progress float64                `json:"progress"`
	FileURL  *string                `json:"file_url"`
	Error    *string                `json:"error,omitempty"`
	Created  time.Time              `json:"created"`
}

const (
	reportSetKey = "report_ids"
	reportTTL    = 20 * time.Minute

	maxPaymentsForReport = 500_000

	presignTTL = 24 * time.Hour
)

type PaymentLister interface {
	List(ctx context.Context, f repository.PaymentsFilter) ([]domain.Payment, error)
	HasMoreThan(ctx context.Context, limit int64, f repository.PaymentsFilter) (bool, error)
}

type Aggregator interface {
	Accumulate(ctx context.Context, period aggregate.Period, payments []domain.Payment) (*aggregate.PerEntityTotals, error)
}

// ReportService generates revenue distribution reports in the background
// and tracks their status in redis.
type ReportService struct {
	payments PaymentLister
	agg      Aggregator
	redis    *clients.RedisClient
	s3       *clients.S3Client
	storage  *clients.StorageClient
	ws       *clients.WebSocketClient
}

func NewReportService(payments PaymentLister, agg Aggregator, redis *clients.RedisClient, s3 *clients.S3Client, storage *clients.StorageClient, ws *clients.WebSocketClient) *ReportService {
	return &ReportService{
		payments: payments,
		agg:      agg,
		redis:    redis,
		s3:       s3,
		storage:  storage,
		ws:       ws,
	}
}

func (s *ReportService) saveReportStatus(ctx context.Context, st *ReportStatus) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, st.Key, string(data), reportTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, reportSetKey, st.Key)
}

// StartRevenueReport queues one report generation and returns its id.
// Only validated payments enter the aggregation, whatever the caller's
// filter says.
func (s *ReportService) StartRevenueReport(ctx context.Context, view ReportView, filter repository.PaymentsFilter, agentID int64) (string, error) {
	validated := domain.PaymentValidated
	filter.Status = &validated

	tooMany, err := s.payments.HasMoreThan(ctx, maxPaymentsForReport, filter)
	if err != nil {
		return "", err
	}
	if tooMany {
		return "", fmt.Errorf("trop d'encaissements pour cet état (plus de %d lignes)", maxPaymentsForReport)
	}

	reportID := fmt.Sprintf("reports:%s", uuid.NewString())
	now := time.Now()

	status := &ReportStatus{
		Key:      reportID,
		Type:     string(view),
		AgentID:  agentID,
		Filters:  buildReportFiltersMap(view, filter),
		Progress: 0,
		FileURL:  nil,
		Created:  now,
	}

	_ = s.saveReportStatus(ctx, status)

	go s.runRevenueReport(context.Background(), reportID, view, filter, agentID, now)

	return reportID, nil
}

func (s *ReportService) runRevenueReport(ctx context.Context, reportID string, view ReportView, filter repository.PaymentsFilter, agentID int64, createdAt time.Time) {
	status := &ReportStatus{
		Key:     reportID,
		Type:    string(view),
		AgentID: agentID,
		Filters: buildReportFiltersMap(view, filter),
		Created: createdAt,
	}

	fail := func(stage string, err error) {
		errStr := fmt.Sprintf("%s: %v", stage, err)
		log.Printf("report %s: %s", reportID, errStr)
		status.Error = &errStr
		status.Progress = 100
		_ = s.saveReportStatus(ctx, status)
		if s.ws != nil {
			_ = s.ws.NotifyReportFailed(ctx, agentID, reportID, errStr)
		}
	}

	payments, err := s.payments.List(ctx, filter)
	if err != nil {
		fail("chargement des encaissements", err)
		return
	}

	status.Progress = 25
	_ = s.saveReportStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyReportProgress(ctx, agentID, reportID, 25, "aggregating")
	}

	period := aggregate.Period{}
	if filter.PeriodStartDate != nil {
		period.Start = *filter.PeriodStartDate
	}
	if filter.PeriodEndDate != nil {
		period.End = *filter.PeriodEndDate
	}

	totals, err := s.agg.Accumulate(ctx, period, payments)
	if err != nil {
		fail("calcul de la répartition", err)
		return
	}

	status.Progress = 60
	_ = s.saveReportStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyReportProgress(ctx, agentID, reportID, 60, "generating")
	}

	f, err := buildRevenueWorkbook(view, totals)
	if err != nil {
		fail("génération du classeur", err)
		return
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail("écriture du classeur", err)
		return
	}
	data := buf.Bytes()

	fileName := fmt.Sprintf("etat_%s_%s.xlsx", view, time.Now().Format("20060102_150405"))

	status.Progress = 95
	_ = s.saveReportStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyReportProgress(ctx, agentID, reportID, 95, "uploading")
	}

	url, err := s.store(ctx, fileName, data)
	if err != nil {
		fail("enregistrement du fichier", err)
		return
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveReportStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyReportProgress(ctx, agentID, reportID, 100, "ready")
		_ = s.ws.NotifyReportComplete(ctx, agentID, reportID, url, fileName)
	}
}

// store prefers object storage and falls back to local disk.
func (s *ReportService) store(ctx context.Context, fileName string, data []byte) (string, error) {
	if s.s3 != nil {
		key, err := s.s3.UploadXLSX(ctx, fileName, data)
		if err != nil {
			return "", err
		}
		return s.s3.GetTemporaryURL(ctx, key, presignTTL)
	}
	if s.storage == nil {
		return "", fmt.Errorf("no storage configured")
	}
	saved, err := s.storage.Save(ctx, fileName, data)
	if err != nil {
		return "", err
	}
	return s.storage.GetURL(saved), nil
}

const totalsGap = 2

// buildRevenueWorkbook renders one aggregation run for a view. Whatever the
// view, the sheet ends with the identical pooled totals block; the report
// templates may differ in rows but never in totals.
func buildRevenueWorkbook(view ReportView, totals *aggregate.PerEntityTotals) (*excelize.File, error) {
	f := excelize.NewFile()

	var sheet string
	var headers []string
	var rows [][]interface{}

	switch view {
	case ReportViewAgents:
		sheet = "Agents"
		headers = []string{"Agent", "Matricule", "Service", "Centre", "Part chef", "Part saisissant", "Total", "Nombre de parts"}
		rows = agentRows(totals)
	case ReportViewServices:
		sheet = "Services"
		headers = []string{"Service", "Encaissements", "Montant encaissé", "Part des chefs", "Part des saisissants"}
		rows = groupRows(totals.ByService)
	case ReportViewCenters:
		sheet = "Centres"
		headers = []string{"Centre", "Encaissements", "Montant encaissé", "Part des chefs", "Part des saisissants"}
		rows = groupRows(totals.ByCenter)
	default:
		return nil, fmt.Errorf("unknown report view %q", view)
	}

	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowIdx := 2
	for _, row := range rows {
		for colIdx, v := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, v)
		}
		rowIdx++
	}

	rowIdx += totalsGap
	for _, line := range pooledTotalsRows(totals) {
		labelCell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		valueCell, _ := excelize.CoordinatesToCellName(2, rowIdx)
		_ = f.SetCellValue(sheet, labelCell, line.Label)
		_ = f.SetCellValue(sheet, valueCell, line.Amount.InexactFloat64())
		rowIdx++
	}

	return f, nil
}

func agentRows(totals *aggregate.PerEntityTotals) [][]interface{} {
	ids := make([]int64, 0, len(totals.ByAgent))
	for id := range totals.ByAgent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([][]interface{}, 0, len(ids))
	for _, id := range ids {
		a := totals.ByAgent[id]
		rows = append(rows, []interface{}{
			a.Agent.FullName,
			a.Agent.ID,
			strOrEmpty(a.Agent.Service),
			strOrEmpty(a.Agent.Center),
			a.ChiefShare.InexactFloat64(),
			a.SeizingShare.InexactFloat64(),
			a.Total.InexactFloat64(),
			a.Shares,
		})
	}
	return rows
}

func groupRows(groups map[string]*aggregate.GroupTotals) [][]interface{} {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		rows = append(rows, []interface{}{
			g.Key,
			g.Payments,
			g.Collected.InexactFloat64(),
			g.ChiefsPool.InexactFloat64(),
			g.Seizing.InexactFloat64(),
		})
	}
	return rows
}

type totalsLine struct {
	Label  string
	Amount decimal.Decimal
}

func pooledTotalsRows(totals *aggregate.PerEntityTotals) []totalsLine {
	return []totalsLine{
		{"Montant encaissé", totals.Pooled.Collected},
		{"Part de l'indicateur", totals.Pooled.Indicator},
		{"Fonds juridique", totals.Pooled.LegalFund},
		{"Trésor", totals.Pooled.Treasury},
		{"Part des chefs", totals.Pooled.ChiefsPool},
		{"Part des saisissants", totals.Pooled.Seizing},
		{"Mutuelle", totals.Pooled.Mutual},
		{"Fonds commun", totals.Pooled.CommonFund},
		{"Fonds d'intéressement", totals.Pooled.Incentive},
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func buildReportFiltersMap(view ReportView, f repository.PaymentsFilter) map[string]interface{} {
	m := map[string]interface{}{"view": string(view)}
	if f.CaseID != nil {
		m["case_id"] = *f.CaseID
	} else {
		m["case_id"] = nil
	}
	if f.CollectorID != nil {
		m["collector_id"] = *f.CollectorID
	} else {
		m["collector_id"] = nil
	}
	if f.PeriodStartDate != nil {
		m["period_start_date"] = f.PeriodStartDate.Format("2006-01-02")
	} else {
		m["period_start_date"] = nil
	}
	if f.PeriodEndDate != nil {
		m["period_end_date"] = f.PeriodEndDate.Format("2006-01-02")
	} else {
		m["period_end_date"] = nil
	}
	return m
}
