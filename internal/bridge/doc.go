// Package bridge implements the Notification Bridge.
//
// The bridge owns the single standing subscription to the store's change
// notifications. Each notification is classified by its key suffix and
// turned into at most one action:
//
//	deleted  <id>-suspended   → emit "suspended"
//	deleted  <gen>-ttl-set    → retire the timer registry
//	deleted  <gen>-data-set   → retire the data registry
//	deleted  <id>             → emit "deleted"
//	expired  <id>             → fetch payload, emit "expired", drain registries
//	armed    <id>-resumed     → emit "resumed"
//
// Everything else is ignored. Notifications are handled one at a time on a
// single goroutine; a failure while handling one is reported and never stops
// the loop.
//
// When the store ends the subscription on its own, the bridge reports
// types.ErrSubscriptionClosed and reopens it with jittered backoff until it
// succeeds or Stop is called. Notifications published in the gap are lost.
package bridge
