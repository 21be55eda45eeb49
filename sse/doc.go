// Package sse pushes server-sent events to browsers and terminal viewers.
//
// A Hub owns the set of subscribers and assigns increasing event ids.
// Services publish through the Publisher interface; HTTP handlers call
// ServeSSE to stream events for one connection.
//
//	hub := sse.NewHub(log)
//	go hub.Run()
//	_ = hub.Publish("conversation.created", payload)
package sse
