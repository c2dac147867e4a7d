package service

import "time"

// Clock 时间来源，便于测试注入
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock 系统时钟
func SystemClock() Clock {
	return systemClock{}
}
