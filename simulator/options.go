package simulator

import "time"

type options struct {
	signature       [3]byte
	calibration     byte
	fuses           [3]byte
	flashSize       int
	pageSize        int
	enableOnAttempt int
	alwaysBusy      bool
	eraseTime       time.Duration
	pageWriteTime   time.Duration
	fuseTime        time.Duration
	traceSize       int
	initErr         error
}

func defaultOptions() options {
	return options{
		signature:       [3]byte{0x1E, 0x95, 0x0F},
		calibration:     0x9A,
		fuses:           [3]byte{0x62, 0xD9, 0xFF},
		flashSize:       32 << 10,
		pageSize:        128,
		enableOnAttempt: 1,
		eraseTime:       9 * time.Millisecond,
		pageWriteTime:   4500 * time.Microsecond,
		fuseTime:        4500 * time.Microsecond,
		traceSize:       defaultTraceSize,
	}
}

type Option func(*options)

// WithDevice sets signature, flash size and page size in bytes.
func WithDevice(signature [3]byte, flashSize, pageSize int) Option {
	return func(o *options) {
		o.signature = signature
		if flashSize > 0 {
			o.flashSize = flashSize
		}
		if pageSize >= 2 && pageSize&(pageSize-1) == 0 {
			o.pageSize = pageSize
		}
	}
}

func WithCalibration(value byte) Option {
	return func(o *options) {
		o.calibration = value
	}
}

// WithFuses sets the initial low, high and extended fuse.
func WithFuses(low, high, extended byte) Option {
	return func(o *options) {
		o.fuses = [3]byte{low, high, extended}
	}
}

// WithEnableOnAttempt makes the target accept Programming Enable from the
// k-th attempt on. Zero or negative never accepts.
func WithEnableOnAttempt(k int) Option {
	return func(o *options) {
		o.enableOnAttempt = k
	}
}

// WithAlwaysBusy keeps the RDY/BSY flag set forever.
func WithAlwaysBusy() Option {
	return func(o *options) {
		o.alwaysBusy = true
	}
}

// WithBusyTimes sets how long erase, page write and fuse or lock writes
// keep the target busy.
func WithBusyTimes(erase, pageWrite, fuse time.Duration) Option {
	return func(o *options) {
		o.eraseTime = erase
		o.pageWriteTime = pageWrite
		o.fuseTime = fuse
	}
}

// WithTraceSize bounds the number of frames kept by Trace.
func WithTraceSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.traceSize = n
		}
	}
}

// WithInitError makes Init fail.
func WithInitError(err error) Option {
	return func(o *options) {
		o.initErr = err
	}
}
