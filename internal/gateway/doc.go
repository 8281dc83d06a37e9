// Package gateway delivers notifications to chats.
//
// The Notifier interface is what the core services consume; Telegram is the
// production implementation on top of the Bot API with bounded per-send
// timeouts and retry. Deliveries to multiple destinations are isolated from
// each other so one failing chat never blocks the rest.
package gateway
