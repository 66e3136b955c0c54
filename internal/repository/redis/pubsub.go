package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// BookingPubSub publishes booking lifecycle events for out-of-process
// consumers (the email notification worker listens on this channel).
// Publishing happens after commit; a failed publish never affects the
// committed booking.
type BookingPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewBookingPubSub(rdb *redis.Client) *BookingPubSub {
	return &BookingPubSub{
		rdb:     rdb,
		channel: ChannelBookingsChanged(),
	}
}

type bookingChangedMsg struct {
	Type      string `json:"type"`
	BookingID int64  `json:"booking_id"`
	EventID   int64  `json:"event_id"`
	Number    string `json:"number"`
	TsUnix    int64  `json:"ts_unix"`
}

func (p *BookingPubSub) PublishBookingConfirmed(ctx context.Context, bookingID, eventID int64, number string) error {
	return p.publish(ctx, "booking_confirmed", bookingID, eventID, number)
}

func (p *BookingPubSub) PublishBookingCancelled(ctx context.Context, bookingID, eventID int64, number string) error {
	return p.publish(ctx, "booking_cancelled", bookingID, eventID, number)
}

func (p *BookingPubSub) publish(ctx context.Context, typ string, bookingID, eventID int64, number string) error {
	msg := bookingChangedMsg{
		Type:      typ,
		BookingID: bookingID,
		EventID:   eventID,
		Number:    number,
		TsUnix:    time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *BookingPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, typ string, bookingID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev bookingChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.BookingID != 0 {
				handler(ctx, ev.Type, ev.BookingID)
			}
		}
	}
}
