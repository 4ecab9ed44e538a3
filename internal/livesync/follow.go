package livesync

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/editor"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// FollowConfig describes a live sync subscription.
type FollowConfig struct {
	// URL of the socket.io endpoint, e.g. http://localhost:8080/socket.io/.
	URL                string
	PageID             string
	InsecureSkipVerify bool
	// ConnectTimeout bounds the wait for the connection and subscription.
	// Zero means 15s.
	ConnectTimeout time.Duration
	// OnSubscribed, if set, is called once the hub confirmed the
	// subscription.
	OnSubscribed func()
}

type followSignal struct {
	subscribed bool
	err        error
}

// Follow subscribes to a page and calls handle for every event until ctx is
// cancelled. It returns nil on cancellation and an error if the connection
// or subscription could not be established.
func Follow(ctx context.Context, cfg FollowConfig, handle func(editor.Event)) error {
	logger := ctxlog.FromContext(ctx).With("url", cfg.URL, "page", cfg.PageID)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("URL %q must be absolute", cfg.URL)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)
	defer func() {
		logger.Debug("Disconnecting live sync client")
		io.Disconnect()
	}()

	signals := make(chan followSignal, 4)
	notify := func(s followSignal) {
		select {
		case signals <- s:
		default:
		}
	}

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected, subscribing", "sid", io.Id())
		io.Emit(EventSubscribe, cfg.PageID)
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		notify(followSignal{err: fmt.Errorf("socket.io connection failed: %w", firstError(errs))})
	})
	io.On(types.EventName(EventError), func(args ...any) {
		notify(followSignal{err: fmt.Errorf("hub rejected subscription: %v", args)})
	})
	io.On(types.EventName(EventSubscribed), func(...any) {
		notify(followSignal{subscribed: true})
	})
	for _, kind := range []editor.EventKind{editor.EventCommitted, editor.EventAdded, editor.EventRemoved} {
		io.On(types.EventName(kind), func(args ...any) {
			ev, err := decodeEvent(args)
			if err != nil {
				logger.Warn("Dropping undecodable live sync event", "kind", kind, "error", err)
				return
			}
			handle(ev)
		})
	}

	io.Connect()

	connectTimer := time.NewTimer(timeout)
	defer connectTimer.Stop()
	subscribed := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-connectTimer.C:
			if !subscribed {
				return fmt.Errorf("timed out after %v waiting for the subscription to page %q", timeout, cfg.PageID)
			}
		case s := <-signals:
			switch {
			case s.err != nil && !subscribed:
				return s.err
			case s.err != nil:
				// The manager reconnects on its own and "connect" subscribes again.
				logger.Warn("Live sync connection interrupted", "error", s.err)
			case s.subscribed && !subscribed:
				subscribed = true
				logger.Info("Following page")
				if cfg.OnSubscribed != nil {
					cfg.OnSubscribed()
				}
			}
		}
	}
}

func firstError(args []any) error {
	if len(args) == 0 {
		return errors.New("unknown error")
	}
	if err, ok := args[0].(error); ok {
		return err
	}
	return fmt.Errorf("%v", args[0])
}

// decodeEvent converts the decoded JSON payload back into an editor.Event.
func decodeEvent(args []any) (editor.Event, error) {
	var ev editor.Event
	if len(args) == 0 {
		return ev, errors.New("event without payload")
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return ev, err
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, err
	}
	return ev, nil
}
