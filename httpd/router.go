package httpd

import "strings"

// Handler turns a parsed request into a fully-built response.
type Handler interface {
	Serve(*Request) *Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(*Request) *Response

func (f HandlerFunc) Serve(r *Request) *Response {
	return f(r)
}

type route struct {
	method string
	path   string
	h      Handler
}

// Router dispatches by exact path match against the registered dynamic
// routes, evaluated in registration order; anything else falls through to
// the static handler. A path that matches a dynamic route with the wrong
// method gets 405, never the static fallback.
type Router struct {
	routes []route
	static Handler
}

func NewRouter() *Router {
	return &Router{}
}

// Handle registers h for an exact method and path.
func (rt *Router) Handle(method, path string, h Handler) {
	rt.routes = append(rt.routes, route{method: method, path: path, h: h})
}

// HandleFunc registers a function handler for an exact method and path.
func (rt *Router) HandleFunc(method, path string, f func(*Request) *Response) {
	rt.Handle(method, path, HandlerFunc(f))
}

// SetStatic installs the fallback handler for paths no dynamic route claims.
func (rt *Router) SetStatic(h Handler) {
	rt.static = h
}

func (rt *Router) Serve(req *Request) *Response {
	pathMatched := false
	var allowed []string
	for _, r := range rt.routes {
		if r.path != req.Path {
			continue
		}
		if r.method == req.Method || (r.method == "GET" && req.Method == "HEAD") {
			return r.h.Serve(req)
		}
		pathMatched = true
		allowed = append(allowed, r.method)
	}
	if pathMatched {
		resp := Text(405, "method "+req.Method+" not allowed on "+req.Path+"\n")
		resp.SetHeader("Allow", strings.Join(allowed, ", "))
		return resp
	}
	if rt.static != nil {
		if req.Method != "GET" && req.Method != "HEAD" {
			resp := Text(405, "method "+req.Method+" not allowed\n")
			resp.SetHeader("Allow", "GET, HEAD")
			return resp
		}
		return rt.static.Serve(req)
	}
	return Text(404, "no such page: "+req.Path+"\n")
}
