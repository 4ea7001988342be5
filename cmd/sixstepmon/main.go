// sixstepmon prints the traffic of all controllers registered on an MQTT
// broker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/golang/glog"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/msgs"
	"github.com/robotalks/sixstep/pkg/remote/mqtt"
)

var brokerURL = "mqtt://localhost:1883/sixstep/"

func init() {
	if val := os.Getenv("SIXSTEP_MQTT_URL"); val != "" {
		brokerURL = val
	}
	flag.StringVar(&brokerURL, "mqtt", brokerURL, "MQTT broker URL.")
}

func describe(payload []byte) string {
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		return fmt.Sprintf("malformed: %v", err)
	}
	msg, err := typed.Decode()
	if err != nil {
		return fmt.Sprintf("#%d type %x: %v", typed.Sequence, typed.TypeId, err)
	}
	name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
	return fmt.Sprintf("#%d [%s] %s", typed.Sequence, name,
		msg.(msgs.SerializableMessage).Serializable().String())
}

func monitor(ctx context.Context) error {
	q, err := mqtt.NewQueueFromURL(brokerURL)
	if err != nil {
		return err
	}
	if err := mqtt.Wait(ctx, q.Connect()); err != nil {
		return err
	}
	defer q.Close()
	q.Sub("#", func(topic string, payload []byte) {
		ref, suffix, ok := mqtt.SplitTopic(topic)
		switch {
		case !ok:
			glog.Infof("%s: %d bytes", topic, len(payload))
		case suffix == mqtt.TopicMeta && len(payload) == 0:
			glog.Infof("%s: offline", ref)
		case suffix == mqtt.TopicMeta:
			glog.Infof("%s: online %s", ref, payload)
		default:
			glog.Infof("%s %s: %s", ref, suffix, describe(payload))
		}
	})
	<-ctx.Done()
	return nil
}

func main() {
	flag.Set("logtostderr", "true")
	flag.Parse()
	err := fx.NewRunner().HandleSignals().
		Go(fx.NamedRun("monitor", fx.RunnableFunc(monitor))).
		Wait()
	if err != nil {
		glog.Exit(err)
	}
}
