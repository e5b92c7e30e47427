package forward

import (
	"fmt"
	"strings"

	device "sms-relay-hub/internal/device/model"
	message "sms-relay-hub/internal/message/model"
)

const timeLayout = "2006-01-02 15:04:05"

// Format renders the notification text for a message. SMS messages run the
// platform template through placeholder substitution; call messages ignore
// the template and use a fixed layout.
func Format(template string, msg *message.Message, dev *device.Device, sim *device.SimCard) string {
	if msg.Type == message.TypeCall {
		return formatCall(msg, dev, sim)
	}
	return formatSMS(template, msg, dev, sim)
}

// formatSMS substitutes {device} {simcard} {sender} {content} {time}
// literally. Unknown placeholders stay as-is.
func formatSMS(template string, msg *message.Message, dev *device.Device, sim *device.SimCard) string {
	replacer := strings.NewReplacer(
		"{device}", dev.DisplayName(),
		"{simcard}", sim.DisplayName(),
		"{sender}", msg.SenderNumber(),
		"{content}", msg.BodyText(),
		"{time}", msg.CreatedAt.Local().Format(timeLayout),
	)
	return replacer.Replace(template)
}

func formatCall(msg *message.Message, dev *device.Device, sim *device.SimCard) string {
	var b strings.Builder
	b.WriteString("来电通知\n")
	b.WriteString("设备: " + dev.DisplayName() + "\n")
	b.WriteString("卡槽: " + sim.DisplayName() + "\n")
	b.WriteString("号码: " + msg.SenderNumber() + "\n")
	b.WriteString("状态: " + callStatusPhrase(msg) + "\n")
	b.WriteString("时间: " + msg.CreatedAt.Local().Format(timeLayout))
	return b.String()
}

func callStatusPhrase(msg *message.Message) string {
	status := ""
	if msg.CallStatus != nil {
		status = *msg.CallStatus
	}

	switch status {
	case message.CallStatusRinging:
		return "响铃中"
	case message.CallStatusAnswered:
		duration := 0
		if msg.CallDuration != nil {
			duration = *msg.CallDuration
		}
		return fmt.Sprintf("已接听 (%s)", FormatDuration(duration))
	case message.CallStatusRejected:
		return "已拒绝"
	case message.CallStatusMissed:
		return "未接来电"
	default:
		return "来电"
	}
}

// FormatDuration renders seconds as 时/分/秒, omitting zero-valued higher
// units. Zero renders as "0秒".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0秒"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	var b strings.Builder
	if hours > 0 {
		fmt.Fprintf(&b, "%d小时", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%d分", minutes)
	}
	if secs > 0 {
		fmt.Fprintf(&b, "%d秒", secs)
	}
	return b.String()
}
