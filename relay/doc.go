// Package relay republishes timer events to NATS.
//
// A Relay attaches to a Manager (or anything else implementing
// types.EventSource) and publishes every domain event as a CBOR envelope to
// <prefix>.<event>, e.g. "radicchio.events.expired". When a stream name is
// configured, Start provisions a JetStream stream over those subjects and
// publishes are acknowledged by the stream, so services that come up later can
// replay recent events.
//
// Subscribe is the consuming side: it decodes envelopes back into events for
// processes that do not share the store's notification channel.
//
// Delivery is best-effort, like the store notifications it relays. Consumers
// that need the authoritative view poll the Manager.
package relay
