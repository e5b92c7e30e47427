package forward

import (
	"strings"

	device "sms-relay-hub/internal/device/model"
	"sms-relay-hub/internal/forward/model"
	message "sms-relay-hub/internal/message/model"
)

// Matches decides whether a message is forwarded to a platform under its
// filter rules. Pure predicate, no side effects.
//
// Calls forward by default: blocklisted caller numbers reject first, then a
// populated device or SIM allow-list must contain the event's device/SIM.
// SMS is the opposite: with no rules configured everything passes, but once
// any list is populated at least one category must match (OR across
// categories), otherwise the message is rejected.
func Matches(rules model.FilterRules, msg *message.Message, dev *device.Device, sim *device.SimCard) bool {
	if msg.Type == message.TypeCall {
		return matchesCall(rules, msg, dev, sim)
	}
	return matchesSMS(rules, msg, dev, sim)
}

func matchesCall(rules model.FilterRules, msg *message.Message, dev *device.Device, sim *device.SimCard) bool {
	caller := msg.SenderNumber()
	for _, blocked := range rules.BlockCallNumbers {
		if blocked != "" && strings.Contains(caller, blocked) {
			return false
		}
	}

	if len(rules.Devices) > 0 && !contains(rules.Devices, dev.ExternalID) {
		return false
	}
	if len(rules.SimCards) > 0 && !contains(rules.SimCards, sim.ID.String()) {
		return false
	}
	return true
}

func matchesSMS(rules model.FilterRules, msg *message.Message, dev *device.Device, sim *device.SimCard) bool {
	if rules.Empty() {
		return true
	}

	body := msg.BodyText()
	for _, kw := range rules.Keywords {
		if kw != "" && strings.Contains(body, kw) {
			return true
		}
	}

	sender := msg.SenderNumber()
	for _, s := range rules.Senders {
		if s != "" && strings.Contains(sender, s) {
			return true
		}
	}

	if contains(rules.Devices, dev.ExternalID) {
		return true
	}
	if contains(rules.SimCards, sim.ID.String()) {
		return true
	}

	return false
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
