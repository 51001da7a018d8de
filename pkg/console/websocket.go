package console

import (
	"context"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// Handler serves c over websocket connections, one at a time.
func Handler(ctx context.Context, c *Console) websocket.Handler {
	return websocket.Handler(func(ws *websocket.Conn) {
		ws.PayloadType = websocket.BinaryFrame
		addr := ws.Request().RemoteAddr
		err := c.Serve(ctx, ws)
		if err == ErrBusy {
			ws.Write([]byte(err.Error() + "\n"))
			glog.Warningf("console rejected %s: %v", addr, err)
			return
		}
		glog.Infof("console %s detached: %v", addr, err)
	})
}

// WebsocketServer is a Runnable serving a Console over websocket.
type WebsocketServer struct {
	Console *Console
	Addr    string
	Path    string
}

// Run implements Runnable.
func (s *WebsocketServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	path := s.Path
	if path == "" {
		path = "/"
	}
	mux.Handle(path, Handler(ctx, s.Console))
	server := &http.Server{Addr: s.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		glog.Infof("console listening on ws://%s%s", s.Addr, path)
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		server.Close()
		return ctx.Err()
	}
}
