package httpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(path string) *Request {
	return &Request{Method: "GET", Path: path, Proto: "HTTP/1.1", Header: Header{}}
}

func TestRouter_DynamicBeforeStatic(t *testing.T) {
	rt := NewRouter()
	rt.HandleFunc("GET", "/hello", func(r *Request) *Response {
		return Text(200, "dynamic")
	})
	rt.SetStatic(HandlerFunc(func(r *Request) *Response {
		return Text(200, "static")
	}))

	resp := rt.Serve(get("/hello"))
	assert.Equal(t, "dynamic", string(resp.Body))

	resp = rt.Serve(get("/anything-else.html"))
	assert.Equal(t, "static", string(resp.Body))
}

func TestRouter_MethodMismatchIs405(t *testing.T) {
	rt := NewRouter()
	rt.HandleFunc("GET", "/hello", func(r *Request) *Response {
		return Text(200, "hi")
	})

	req := get("/hello")
	req.Method = "POST"
	resp := rt.Serve(req)
	require.Equal(t, 405, resp.StatusCode)
	assert.Equal(t, "GET", resp.HeaderValue("Allow"))
}

func TestRouter_HeadServedByGetRoute(t *testing.T) {
	rt := NewRouter()
	rt.HandleFunc("GET", "/hello", func(r *Request) *Response {
		return Text(200, "hi")
	})
	req := get("/hello")
	req.Method = "HEAD"
	resp := rt.Serve(req)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRouter_StaticRejectsNonGet(t *testing.T) {
	rt := NewRouter()
	rt.SetStatic(HandlerFunc(func(r *Request) *Response {
		return Text(200, "file")
	}))
	req := get("/a.txt")
	req.Method = "DELETE"
	resp := rt.Serve(req)
	assert.Equal(t, 405, resp.StatusCode)
}

func TestRouter_NoHandlerIs404(t *testing.T) {
	rt := NewRouter()
	resp := rt.Serve(get("/nope"))
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRouter_RegistrationOrderWins(t *testing.T) {
	rt := NewRouter()
	rt.HandleFunc("GET", "/dup", func(r *Request) *Response { return Text(200, "first") })
	rt.HandleFunc("GET", "/dup", func(r *Request) *Response { return Text(200, "second") })
	resp := rt.Serve(get("/dup"))
	assert.Equal(t, "first", string(resp.Body))
}
