// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gdeh0154d67

import (
	"context"

	"github.com/GermanBionicSystems/epaper/epdif"
)

// errorHandler is a wrapper for error management. The first error turns all
// following calls into no-ops.
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
