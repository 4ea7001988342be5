package mqtt

import (
	"strings"

	"github.com/robotalks/sixstep/pkg/remote"
)

// Topics of a controller live under <type>/<id>/.
//
//	meta  retained ControllerMeta in JSON, empty when offline
//	cmd   commands from clients
//	msg   replies and events from the controller
const (
	TopicMeta = "meta"
	TopicCmd  = "cmd"
	TopicMsg  = "msg"
)

// MetaFilter matches the meta topics of all controllers.
const MetaFilter = "+/+/" + TopicMeta

// ControllerTopic returns the topic of ref with the suffix.
func ControllerTopic(ref remote.ControllerRef, suffix string) string {
	return ref.Type + "/" + ref.ID + "/" + suffix
}

// SplitTopic splits a controller topic into the ref and the suffix.
func SplitTopic(topic string) (ref remote.ControllerRef, suffix string, ok bool) {
	levels := strings.Split(topic, "/")
	if len(levels) != 3 {
		return
	}
	ref = remote.ControllerRef{Type: levels[0], ID: levels[1]}
	return ref, levels[2], ref.IsValid()
}

// ParseMetaTopic extracts the controller ref from <type>/<id>/meta.
func ParseMetaTopic(topic string) (remote.ControllerRef, bool) {
	ref, suffix, ok := SplitTopic(topic)
	return ref, ok && suffix == TopicMeta
}
