// Package mqtt publishes trial results to an MQTT broker with Eclipse Paho.
// Importing the package registers the "mqtt" result sink.
package mqtt
