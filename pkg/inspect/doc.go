// Package inspect exposes registered observable roots over HTTP for
// development tooling: snapshot endpoints, wrapper metadata, and a
// WebSocket stream of change events.
//
// Mount the handler in any router:
//
//	ins := inspect.New()
//	ins.Register("session", sessionState)
//	http.ListenAndServe(":6060", ins.Handler())
package inspect
