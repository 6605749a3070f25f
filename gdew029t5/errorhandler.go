// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gdew029t5

import (
	"context"
	"time"

	"github.com/GermanBionicSystems/epaper/epdif"
)

// errorHandler is a wrapper for error management.
type errorHandler struct {
	t   *epdif.Transport
	err error
}

func (eh *errorHandler) sendCommand(cmd byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.t.SendCommand(cmd)
}

func (eh *errorHandler) sendData(data []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.t.SendData(data...)
}

func (eh *errorHandler) waitUntilIdle() {
	if eh.err != nil {
		return
	}
	eh.err = eh.t.WaitUntilIdle(context.Background())
}

func (eh *errorHandler) delay(d time.Duration) {
	if eh.err != nil {
		return
	}
	eh.t.Delay(d)
}
