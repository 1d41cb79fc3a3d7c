// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// mq is a handle onto an MQTT broker connection.
type mq struct {
	conn   mqtt.Client // broker connection
	prefix string      // topic prefix
}

// newMQ connects to a broker and returns a new mq object. The connection is persistent, i.e.,
// re-establishes itself if there is a disconnect. Subscriptions also get renewed after a reconnect.
func newMQ(conf MqttConfig) (*mq, error) {
	hostname, _ := os.Hostname()
	id := "rfm26-gateway-" + hostname
	log.Debugf("Configuring MQTT with client id %s: %s:%d", id, conf.Host, conf.Port)
	mqtt.ERROR = log.StandardLogger()
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", conf.Host, conf.Port))
	opts.ClientID = id
	opts.Username = conf.User
	opts.Password = conf.Password
	opts.AutoReconnect = true
	opts.CleanSession = false

	mqConn := mqtt.NewClient(opts)
	token := mqConn.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timeout connecting to %s:%d", conf.Host, conf.Port)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	log.Printf("MQTT connected")
	return &mq{conn: mqConn, prefix: conf.Prefix}, nil
}

// Publish publishes a JSON encoded payload to <prefix>/<suffix>.
func (mq *mq) Publish(suffix string, payload interface{}) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	mq.conn.Publish(mq.prefix+"/"+suffix, 1, false, jsonPayload)
	return nil
}

// SubscribeTx subscribes to <prefix>/tx and feeds the decoded frames into txChan. Messages that
// do not decode are logged and dropped.
func (mq *mq) SubscribeTx(txChan chan<- TxFrame) error {
	topic := mq.prefix + "/tx"
	handler := func(c mqtt.Client, m mqtt.Message) {
		var tx TxFrame
		if err := json.Unmarshal(m.Payload(), &tx); err != nil {
			log.Warnf("cannot json decode payload for %s: %s", m.Topic(), err)
			return
		}
		txChan <- tx
	}
	token := mq.conn.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("timeout subscribing to %s", topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (mq *mq) Close() {
	mq.conn.Disconnect(250)
}
