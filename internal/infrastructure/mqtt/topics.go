package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the charge box control plane.
//
// Exchange events flow out, remote commands flow in and their results flow
// back out:
//
//	chargebox/events/{chargeBoxID}/{direction}/{action}/{request|response}
//	chargebox/command/{chargeBoxID}/{action}
//	chargebox/result/{chargeBoxID}/{requestID}
//	chargebox/system/status
const (
	// TopicPrefix is the root of every topic this service uses.
	TopicPrefix = "chargebox"

	// TopicPrefixSystem is the base for service status topics.
	TopicPrefixSystem = "chargebox/system"
)

// Event kinds used as the last segment of an event topic.
const (
	EventKindRequest  = "request"
	EventKindResponse = "response"
)

// Topics provides builders for the service's MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Event("CP001", "outbound", "Reset", mqtt.EventKindResponse)
//	// Returns: "chargebox/events/CP001/outbound/Reset/response"
type Topics struct{}

// Event returns the topic an exchange event is published on.
func (Topics) Event(chargeBoxID, direction, action, kind string) string {
	return fmt.Sprintf("%s/events/%s/%s/%s/%s", TopicPrefix, chargeBoxID, direction, action, kind)
}

// Command returns the topic a remote command for one charge box arrives on.
//
// Example: chargebox/command/CP001/Reset
func (Topics) Command(chargeBoxID, action string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, chargeBoxID, action)
}

// Result returns the topic the outcome of a remote command is published on.
//
// Example: chargebox/result/CP001/4711
func (Topics) Result(chargeBoxID, requestID string) string {
	return fmt.Sprintf("%s/result/%s/%s", TopicPrefix, chargeBoxID, requestID)
}

// SystemStatus returns the retained online/offline status topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllCommands matches every remote command.
//
// Pattern: chargebox/command/+/+
func (Topics) AllCommands() string {
	return TopicPrefix + "/command/+/+"
}

// AllEvents matches every exchange event.
//
// Pattern: chargebox/events/#
func (Topics) AllEvents() string {
	return TopicPrefix + "/events/#"
}

// ChargeBoxEvents matches every exchange event of one charge box.
func (Topics) ChargeBoxEvents(chargeBoxID string) string {
	return fmt.Sprintf("%s/events/%s/#", TopicPrefix, chargeBoxID)
}

// ParseCommandTopic splits a command topic into charge box id and action.
func ParseCommandTopic(topic string) (chargeBoxID, action string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[1] != "command" {
		return "", "", fmt.Errorf("%w: %q is not a command topic", ErrInvalidTopic, topic)
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: %q has an empty segment", ErrInvalidTopic, topic)
	}
	return parts[2], parts[3], nil
}
