package back

import (
	"time"
)

func (b *Back) runPeriodicTasks() error {
	b.tickQueueTimeout(time.Now())

	return nil
}
