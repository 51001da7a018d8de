package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/sdep.go/pkg/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/sdep/"
)

func init() {
	if val := os.Getenv("SDEP_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/"+mqtt.TopicMeta):
			if len(payload) == 0 {
				log.Printf("%s: offline", topic)
				return
			}
			log.Printf("%s: %s", topic, string(payload))
		case strings.HasSuffix(topic, "/"+mqtt.TopicCommand):
			log.Printf("%s: %q", topic, string(payload))
		case strings.HasSuffix(topic, "/"+mqtt.TopicExchange):
			x, err := mqtt.DecodeExchange(payload)
			if err != nil {
				log.Printf("%s: bad exchange: %v", topic, err)
				return
			}
			if x.Error != "" {
				log.Printf("%s: [%s] %q ERROR: %s", topic, x.Source, x.Command, x.Error)
				return
			}
			log.Printf("%s: [%s] %q -> type=0x%02x cmd=0x%04x len=%d truncated=%v %q",
				topic, x.Source, x.Command, x.MsgType, x.CmdId, x.Length, x.Truncated, x.Payload)
		}
	}))
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
