package model

// PushPayload — формат push-уведомления, который потребляет клиент.
// Клик по уведомлению ведёт на URL и передаёт ActionID внутренним сообщением.
type PushPayload struct {
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	Icon     string               `json:"icon,omitempty"`
	Badge    string               `json:"badge,omitempty"`
	URL      string               `json:"url,omitempty"`
	ActionID string               `json:"actionId,omitempty"`
	Actions  []NotificationAction `json:"actions,omitempty"`
}

type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}
