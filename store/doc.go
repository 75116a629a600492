// Package store provides types.Store backends.
//
// Two backends share one key model:
//
//	<timerID>             Active: "" with a TTL; Suspended: remaining millis, no TTL
//	<gen>-ttl-set         set of Active timer ids
//	<gen>-data-set        hash of timer id → serialized payload
//	<timerID>-suspended   deleted to signal a completed suspend
//	<timerID>-resumed     armed with a 1ms expiry to signal a completed resume
//
// Redis runs each atomic operation as an embedded Lua script and listens on the
// keyevent channels for del, expired and expire. Memory emulates the same
// semantics in process: TTL strings, sets and hashes that disappear when their
// last member is removed, and best-effort notification delivery.
package store
