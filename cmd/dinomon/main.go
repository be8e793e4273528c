package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/dino.go/pkg/bridge/mqtt"
	"github.com/robotalks/dino.go/pkg/bridge/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/dino/"
	topic   = "#"
)

func init() {
	if val := os.Getenv("DINO_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&topic, "topic", topic, "Topic filter relative to the prefix, e.g. BOARD/event/+.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub(topic, mqtt.Handler(func(topic string, payload []byte) {
		msg, err := msgs.DecodeTopic(topic, payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, msg.String())
	}))
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
