package peer

import (
	"context"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"

	"github.com/dropwire/dropwire/internal/transfer"
)

// dataChannel adapts a webrtc.DataChannel to transfer.Channel. Inbound
// delivery blocks the pion read loop rather than dropping frames; the done
// channel unblocks it when the channel dies.
type dataChannel struct {
	dc   *webrtc.DataChannel
	recv chan transfer.Message
	done chan struct{}
	once sync.Once
}

func newDataChannel(dc *webrtc.DataChannel) *dataChannel {
	ch := &dataChannel{
		dc:   dc,
		recv: make(chan transfer.Message, 64),
		done: make(chan struct{}),
	}

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		select {
		case ch.recv <- transfer.Message{Text: msg.IsString, Data: msg.Data}:
		case <-ch.done:
		}
	})

	dc.OnClose(func() {
		ch.markClosed()
	})

	dc.OnError(func(err error) {
		ch.markClosed()
	})

	return ch
}

func (c *dataChannel) markClosed() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *dataChannel) Send(data []byte) error {
	return c.dc.Send(data)
}

func (c *dataChannel) SendText(s string) error {
	return c.dc.SendText(s)
}

func (c *dataChannel) Recv() <-chan transfer.Message {
	return c.recv
}

func (c *dataChannel) Done() <-chan struct{} {
	return c.done
}

func (c *dataChannel) flush(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for c.dc.BufferedAmount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func (c *dataChannel) Close() error {
	c.markClosed()
	return c.dc.Close()
}

var _ transfer.Channel = (*dataChannel)(nil)
