package dispatcher

import (
	"context"

	"sms-relay-hub/internal/forward/model"
)

// Notification is a rendered message ready for delivery.
type Notification struct {
	Text   string
	IsCall bool
}

// Dispatcher delivers a rendered notification to one platform, normalizing
// that platform's success contract into an error return. Implementations
// validate credentials before touching the network.
type Dispatcher interface {
	Platform() model.Platform
	Send(ctx context.Context, n *Notification, setting *model.ForwardSetting) error
}

const (
	smsTitle  = "短信通知"
	callTitle = "来电通知"
)

func title(n *Notification) string {
	if n.IsCall {
		return callTitle
	}
	return smsTitle
}
