package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API.
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy" or "idle"
	Connections ConnectionStats `json:"connections"`
	Topics      TopicStats      `json:"topics"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats holds connection-related statistics.
type ConnectionStats struct {
	TotalConnected int `json:"totalConnected"` // clients currently connected
	UniqueUsers    int `json:"uniqueUsers"`    // distinct usernames among them
}

// TopicStats holds fanout topic statistics.
type TopicStats struct {
	TotalTopics  int         `json:"totalTopics"`
	TopicDetails []TopicInfo `json:"topicDetails"`
}

// TopicInfo describes a single fanout topic.
type TopicInfo struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
}

// ClientInfo describes a connected websocket client.
type ClientInfo struct {
	ClientID string `json:"clientId"`
	Username string `json:"username"`
}
