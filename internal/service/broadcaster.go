package service

// Broadcaster pushes events to connected admin dashboards (implemented by the websocket hub)
type Broadcaster interface {
	BroadcastToAdmins(msgType string, payload interface{})
}

// Admin feed event types
const (
	EventScoreCalculated = "score_calculated"
	EventCatalogChanged  = "catalog_changed"
)
