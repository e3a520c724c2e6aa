// Package events provides types and interfaces for an event-driven architecture.
//
// Components emit events without knowing which handlers will process them. The
// reading scheduler uses this to announce topic completions and list
// reconciliations to whatever UI state the caller owns.
//
// The primary components are:
// - Event: a typed, JSON-encoded notification
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
// - Bus: the in-process EventEmitter, with per-type subscriptions
package events
