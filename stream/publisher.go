package stream

import (
	"github.com/eclipse/paho.mqtt.golang"
)

// Publisher sends payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Subscriber delivers payloads received on a topic to handler.
type Subscriber interface {
	Subscribe(topic string, handler func(payload []byte)) error
}

// MQTTClient adapts an mqtt.Client to Publisher and Subscriber.
type MQTTClient struct {
	client mqtt.Client
	qos    byte
}

// NewMQTTClient wraps client, publishing frames with qos.
func NewMQTTClient(client mqtt.Client, qos byte) *MQTTClient {
	c := new(MQTTClient)
	c.client = client
	c.qos = qos
	return c
}

func (c *MQTTClient) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, c.qos, false, payload)
	token.Wait()
	return token.Error()
}

func (c *MQTTClient) Subscribe(topic string, handler func(payload []byte)) error {
	token := c.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	return token.Error()
}
