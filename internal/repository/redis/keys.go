package redis

import "fmt"

const ns = "stadix:v1"

func KeyAvailability(eventID, sectionID int64) string {
	return fmt.Sprintf("%s:event:%d:section:%d:availability", ns, eventID, sectionID)
}

func KeyEventRevenue(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:revenue", ns, eventID)
}

func KeyEventBookings(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:bookings", ns, eventID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelBookingsChanged() string {
	return ns + ":bookings:changed"
}
