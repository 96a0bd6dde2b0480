package domain

import (
	"strconv"
	"sync"
	"time"
)

var (
	idMu   sync.Mutex
	lastID int64
)

// NewTimeID возвращает идентификатор, производный от текущего времени в
// миллисекундах, уникальный в пределах жизни процесса.
func NewTimeID() string {
	idMu.Lock()
	defer idMu.Unlock()
	now := time.Now().UnixMilli()
	if now <= lastID {
		now = lastID + 1
	}
	lastID = now
	return strconv.FormatInt(now, 10)
}
