package service

import (
	"github.com/stadix/stadix/internal/repository"
	redisrepo "github.com/stadix/stadix/internal/repository/redis"
	"github.com/stadix/stadix/internal/service/admin"
	"github.com/stadix/stadix/internal/service/booking"
	"github.com/stadix/stadix/internal/service/query"
	"github.com/stadix/stadix/internal/service/seats"
)

type Services struct {
	Booking *booking.Service
	Query   *query.Service
	Seats   *seats.Service
	Admin   *admin.Service
}

type Config struct {
	Booking booking.Config
}

func NewServices(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.BookingPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Services {
	seatSvc := seats.New(store)

	return &Services{
		Booking: booking.New(store, cache, pubsub, limiter, cfg.Booking),
		Query:   query.New(store, cache),
		Seats:   seatSvc,
		Admin:   admin.New(store, seatSvc),
	}
}
