//go:build linux

package daemon

import (
	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/platform"
)

func openX11(display string, logger *zap.Logger) (platform.WindowSystem, func(), error) {
	sys, err := platform.NewX11System(display, logger)
	if err != nil {
		return nil, nil, err
	}
	go sys.EventLoop()
	return sys, sys.Disconnect, nil
}
