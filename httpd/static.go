package httpd

import (
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"dqx0.com/go/webserv/internal/obs"
)

var mimeByExt = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".css":  "text/css",
	".js":   "application/javascript",
	".txt":  "text/plain",
}

// ContentTypeFor picks a Content-Type from the file extension; unknown
// extensions get application/octet-stream.
func ContentTypeFor(name string) string {
	if mt, ok := mimeByExt[strings.ToLower(path.Ext(name))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// StaticHandler serves files from a document root. The root is an fs.FS so
// tests and embedders can substitute any filesystem.
type StaticHandler struct {
	FS  fs.FS
	Log obs.Logger
}

func NewStatic(fsys fs.FS, log obs.Logger) *StaticHandler {
	if log == nil {
		log = obs.NopLogger{}
	}
	return &StaticHandler{FS: fsys, Log: log}
}

// Serve resolves the request path inside the document root and streams the
// file back with Content-Type by extension and an exact Content-Length.
// Requests that traverse outside the root are refused before any filesystem
// access and answered 404, indistinguishable from a missing file.
func (s *StaticHandler) Serve(req *Request) *Response {
	name, ok := resolveRootedPath(req.Path)
	if !ok {
		s.Log.Logf(obs.Warn, "path traversal refused: %q", req.Path)
		return Text(404, "no such file: "+req.Path+"\n")
	}
	fi, err := fs.Stat(s.FS, name)
	if err != nil || fi.IsDir() {
		return Text(404, "no such file: "+req.Path+"\n")
	}
	f, err := s.FS.Open(name)
	if err != nil {
		return Text(404, "no such file: "+req.Path+"\n")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.Log.Logf(obs.Error, "read %q: %v", name, err)
		return Text(500, "error reading file\n")
	}
	resp := NewResponse(200)
	resp.SetHeader("Content-Type", ContentTypeFor(name))
	resp.SetHeader("Content-Length", strconv.Itoa(len(data)))
	resp.Body = data
	return resp
}

// resolveRootedPath maps a decoded URL path onto an fs.FS name. Any ".."
// segment is rejected outright rather than normalized, so a crafted path can
// never name a file above the root.
func resolveRootedPath(p string) (string, bool) {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" || name == "." {
		name = "index.html"
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}
