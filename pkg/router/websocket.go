package router

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pacelog/backend/pkg/ws"
	"github.com/pacelog/backend/pkg/xcontext"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WebsocketHandlerFunc func(ctx context.Context) error

// Websocket registers a duplex endpoint. Before middlewares run prior to the
// upgrade; an error there refuses the connection instead of upgrading it.
func Websocket(r *Router, pattern string, handler WebsocketHandlerFunc) {
	r.mux.HandleFunc(pattern, func(w http.ResponseWriter, httpReq *http.Request) {
		ctx := r.newRequestContext(httpReq, w)

		for _, before := range r.befores {
			newCtx, err := before(ctx)
			if err != nil {
				http.Error(w, "Access token is not valid", http.StatusUnauthorized)
				return
			}

			if newCtx != nil {
				ctx = newCtx
			}
		}

		conn, err := upgrader.Upgrade(w, httpReq, nil)
		if err != nil {
			r.logger.Warnf("Cannot upgrade the connection: %v", err)
			return
		}

		client := ws.NewClient(conn)
		defer client.Close()

		ctx = xcontext.WithSocketClient(ctx, client)
		if err := handler(ctx); err != nil {
			r.logger.Debugf("Socket handler stopped: %v", err)
		}
	})
}
