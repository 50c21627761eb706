// Package feed supplies throughput samples (kilograms processed and exported
// per hour) to the display.
//
// A Source is started once per mount and stopped on unmount. The default
// Simulator draws one random sample per start; MQTTSource follows a broker
// topic and emits a sample for every well-formed message.
package feed
