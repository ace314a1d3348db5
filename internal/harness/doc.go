// Package harness runs YAML broker scenarios and checks the result.
//
// # Scenario Format
//
//	name: basket_grant_unfocused
//	description: "An unfocused host is asked for focus and gets it back"
//	focused: false
//	steps:
//	  - request:
//	      category: basket
//	      payload: { requestID: a, originator: example.com, basket: todo }
//	  - grant: { category: basket }
//	assertions:
//	  - type: focus_calls
//	    calls: [is_focused, request_focus, relinquish_focus]
//	  - type: queue_length
//	    category: basket
//	    count: 0
//
// Request payloads go through the SDK bridge, so malformed payloads are
// rejected exactly as a host event would be.
//
// # Determinism
//
// Each scenario runs against a fresh broker with sequential episode tokens
// and a fixed run ID, and the broker is settled after every step (unless
// focus checks are held). The journal trace is therefore identical across
// runs and can be compared against golden files.
package harness
