// Package config resolves the settings of the signup console.
//
// Values are layered: built-in defaults first, then the JSON file named by
// -c/-config, then the flags below. A later layer only replaces what it sets.
//
//	-a host:port   signupd gRPC endpoint
//	-i seconds     pause between reachability checks
//	-t seconds     deadline for one RPC
//	-k token       operator token sent with the "list" command
//
// The JSON file uses the same settings under snake_case keys, with
// durations written as Go duration strings:
//
//	{"server_endpoint_addr": "signup.internal:50051", "request_timeout": "20s", "admin_token": "ops"}
package config
