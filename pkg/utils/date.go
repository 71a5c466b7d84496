package utils

import (
	"log"
	"sync"
	"time"
	_ "time/tzdata"
)

var (
	easternOnce sync.Once
	eastern     *time.Location
)

// GetEasternTimeLocation returns the America/New_York location used for
// timestamps shown to Pennsylvania readers.
func GetEasternTimeLocation() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			log.Println("Failed to load America/New_York location, using UTC", err)
			loc = time.UTC
		}
		eastern = loc
	})
	return eastern
}
