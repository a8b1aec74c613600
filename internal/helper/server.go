package helper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Handler applies wake alarm requests. rtc.Sysfs satisfies it.
type Handler interface {
	Program(ctx context.Context, at time.Time) error
	Clear(ctx context.Context) error
}

// Serve accepts connections on listener until ctx is cancelled, applying
// each request to h. It closes the listener and waits for in-flight
// connections before returning.
func Serve(ctx context.Context, listener net.Listener, h Handler, logger *slog.Logger) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			logger.Error("accept error", slog.String("error", err.Error()))
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConnection(ctx, conn, h, logger)
		}()
	}
}

func handleConnection(ctx context.Context, conn net.Conn, h Handler, logger *slog.Logger) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(10 * time.Second))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		sendError(conn, logger, fmt.Sprintf("invalid request: %s", err.Error()))
		return
	}

	logger.Info("handling request",
		slog.String("type", string(req.Type)),
		slog.Int64("unix", req.Unix),
	)

	var err error
	switch req.Type {
	case RequestTypeSetWakealarm:
		if req.Unix <= 0 {
			sendError(conn, logger, "set_wakealarm requires a positive unix time")
			return
		}
		err = h.Program(ctx, time.Unix(req.Unix, 0).UTC())
	case RequestTypeClearWakealarm:
		err = h.Clear(ctx)
	default:
		sendError(conn, logger, fmt.Sprintf("unknown request type: %s", req.Type))
		return
	}
	if err != nil {
		sendError(conn, logger, err.Error())
		return
	}

	json.NewEncoder(conn).Encode(&Response{Success: true})
}

func sendError(conn net.Conn, logger *slog.Logger, msg string) {
	logger.Error("request error", slog.String("error", msg))
	json.NewEncoder(conn).Encode(&Response{Success: false, Error: msg})
}
