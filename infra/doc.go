// Package infra holds the adapters around the optimiser: the PDF emitter,
// list importers, metrics sinks and the MQTT client. They implement
// interfaces declared under core and are wired together by app.
package infra
