// Package mqtt is the MQTT client used to publish charge box exchange events
// and to receive remote commands.
//
// It wraps paho.mqtt.golang with auto-reconnect, subscription restoration,
// panic-safe handlers and a retained status on chargebox/system/status
// (online on connect, offline on graceful close, and an LWT offline status
// when the process vanishes).
//
// # Topics
//
//	chargebox/events/{chargeBoxID}/{direction}/{action}/{request|response}
//	chargebox/command/{chargeBoxID}/{action}
//	chargebox/result/{chargeBoxID}/{requestID}
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1, handler)
package mqtt
