// Package testing provides test utilities for the Radicchio library.
//
// It follows Go's convention of providing testing utilities in a dedicated
// package (similar to net/http/httptest).
//
// Key utilities:
//   - StartMiniredis: In-process Redis server and connected client
//   - StartEmbeddedNATS: Single NATS server with JetStream, for the relay
//   - NewTestLogger: Logger writing through t.Logf
//
// Example usage:
//
//	import (
//	    "testing"
//	    radtest "github.com/tibrahul/Radicchio/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, client := radtest.StartMiniredis(t)
//	    st := store.NewRedis(client, store.WithConfigureNotifications(false))
//	}
package testing
