package hub

import (
	"github.com/KrushnaHarde/ChatNexus/internal/model"
)

// MonitorService gathers hub statistics for the monitor endpoint.
type MonitorService struct {
	hub *Hub
}

func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics.
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connections := ms.getConnectionStats()
	topics := ms.getTopicStats()
	clients := ms.getClientList()

	status := "healthy"
	if connections.TotalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connections,
		Topics:      topics,
		Clients:     clients,
	}
}

func (ms *MonitorService) getConnectionStats() model.ConnectionStats {
	ms.hub.clientsMu.RLock()
	defer ms.hub.clientsMu.RUnlock()

	users := make(map[string]struct{}, len(ms.hub.clients))
	for _, c := range ms.hub.clients {
		users[c.username] = struct{}{}
	}

	return model.ConnectionStats{
		TotalConnected: len(ms.hub.clients),
		UniqueUsers:    len(users),
	}
}

func (ms *MonitorService) getTopicStats() model.TopicStats {
	stats := model.TopicStats{
		TopicDetails: make([]model.TopicInfo, 0),
	}

	for _, bucket := range ms.hub.shards {
		bucket.RLock()
		for topic, subs := range bucket.topics {
			stats.TopicDetails = append(stats.TopicDetails, model.TopicInfo{
				Topic:       topic,
				Subscribers: len(subs),
			})
		}
		bucket.RUnlock()
	}

	stats.TotalTopics = len(stats.TopicDetails)
	return stats
}

func (ms *MonitorService) getClientList() []model.ClientInfo {
	ms.hub.clientsMu.RLock()
	defer ms.hub.clientsMu.RUnlock()

	clients := make([]model.ClientInfo, 0, len(ms.hub.clients))
	for _, c := range ms.hub.clients {
		clients = append(clients, model.ClientInfo{
			ClientID: c.ID,
			Username: c.username,
		})
	}
	return clients
}
