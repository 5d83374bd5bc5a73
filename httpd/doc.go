// Package httpd is a small HTTP/1.x server that speaks the wire format
// itself, over raw TCP sockets, with no HTTP library underneath.
//
// Highlights
//   - One worker goroutine per accepted connection, bounded by a
//     configurable slot pool; no connection's failure touches another.
//   - A byte-level request parser (internal/http1) with a classified error
//     taxonomy: malformed input becomes a 400-class response with a short
//     diagnostic, never a dropped connection or a crash.
//   - An ordered route table: exact dynamic routes first, then static file
//     serving from a document root with path-traversal rejection.
//   - A thread-safe statistics registry rendered by the /status handler.
//   - Optional keep-alive behind configuration, with idle timeouts and a
//     per-connection request cap.
//
// Quick start:
//
//	reg := httpd.NewStatsRegistry()
//	rt := httpd.NewRouter()
//	rt.Handle("GET", "/hello", httpd.NewHello())
//	rt.Handle("GET", "/status", httpd.NewStatus(reg))
//	rt.SetStatic(httpd.NewStatic(os.DirFS("./web_root"), nil))
//	s := &httpd.Server{Config: httpd.Config{Port: 8888}, Handler: rt, Stats: reg}
//	if err := s.ListenAndServe(); err != nil { log.Fatal(err) }
package httpd
