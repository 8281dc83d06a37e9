// Package chats persists the directory of chats the bot has seen.
// The directory is informational only and is never consulted by the
// form tracking logic.
package chats
