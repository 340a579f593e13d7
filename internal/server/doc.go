// Package server streams the simulation over a websocket at /ws.
//
// Every frame goes out as a binary PNG message followed by a JSON stats
// message. Clients steer the run with JSON commands:
//
//	{"type":"set","name":"damping","value":0.1}
//	{"type":"reset"} {"type":"pause"} {"type":"resume"}
//	{"type":"source","mode":1}
//
// A binary message from a client is decoded as an image and pushed to the
// upload feed. Rejected commands are answered with
// {"type":"error","content":"..."}.
package server
