// Package mqtt bridges a board to an MQTT broker.
package mqtt
