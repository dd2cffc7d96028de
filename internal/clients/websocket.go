package clients

import (
	"context"
	"fmt"

	ws "contentieux/internal/transport/websocket"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) NotifyReportProgress(
	ctx context.Context,
	agentID int64,
	reportID string,
	progress float64,
	stage string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_agent_of_report_progress#%d", agentID)
	data := map[string]interface{}{
		"id":       reportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	message := &ws.Message{
		Type:    "report_progress",
		Channel: channel,
		Data:    data,
	}

	c.hub.Broadcast(agentID, message)
	return nil
}

func (c *WebSocketClient) NotifyReportComplete(
	ctx context.Context,
	agentID int64,
	reportID string,
	url string,
	filename string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_agent_when_report_complete#%d", agentID)
	message := &ws.Message{
		Type:    "report_complete",
		Channel: channel,
		Data: map[string]interface{}{
			"id":       reportID,
			"url":      url,
			"filename": filename,
			"agent_id": agentID,
		},
	}

	c.hub.Broadcast(agentID, message)
	return nil
}

// NotifyReportFailed tells an agent their report generation failed.
func (c *WebSocketClient) NotifyReportFailed(ctx context.Context, agentID int64, reportID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_agent_when_report_failed#%d", agentID)
	message := &ws.Message{
		Type:    "report_failed",
		Channel: channel,
		Data: map[string]interface{}{
			"id":       reportID,
			"message":  errMsg,
			"agent_id": agentID,
		},
	}

	c.hub.Broadcast(agentID, message)
	return nil
}
