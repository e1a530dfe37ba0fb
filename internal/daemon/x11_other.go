//go:build !linux

package daemon

import (
	"errors"

	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/platform"
)

func openX11(string, *zap.Logger) (platform.WindowSystem, func(), error) {
	return nil, nil, errors.New("the x11 backend is only available on linux")
}
