package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// GetReports lists the reports of one agent, most recent first.
func (s *ReportService) GetReports(ctx context.Context, agentID int64) ([]interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, reportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get report keys: %w", err)
	}

	var statuses []ReportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			// expired status, the set entry will age out on its own
			continue
		}

		var status ReportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}

		if status.AgentID == agentID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	var reports []interface{}
	for _, status := range statuses {
		reports = append(reports, reportMap(status))
	}

	return reports, nil
}

func (s *ReportService) GetReport(ctx context.Context, reportID string, agentID int64) (interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, reportID)
	if err != nil {
		return nil, errors.New("report not found")
	}

	var status ReportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse report status: %w", err)
	}

	if status.AgentID != agentID {
		return nil, errors.New("report not found")
	}

	return reportMap(status), nil
}

func reportMap(status ReportStatus) map[string]interface{} {
	m := map[string]interface{}{
		"key":        status.Key,
		"type":       status.Type,
		"agent_id":   status.AgentID,
		"progress":   status.Progress,
		"file_url":   status.FileURL,
		"filters":    status.Filters,
		"created_at": humanizeFrAgo(status.Created),
	}
	if status.Error != nil {
		m["error"] = *status.Error
	}
	return m
}

func humanizeFrAgo(t time.Time) string {
	now := time.Now()
	if t.After(now) {
		return "à l'instant"
	}

	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	if minutes < 1 {
		return "à l'instant"
	}
	if minutes < 60 {
		return fmt.Sprintf("il y a %d minute%s", minutes, frPlural(minutes))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("il y a %d heure%s", hours, frPlural(hours))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("il y a %d jour%s", days, frPlural(days))
	}
	return t.Format("02/01/2006 15:04")
}

func frPlural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
