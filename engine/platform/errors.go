package platform

import "errors"

var errNoProcAddr = errors.New("vulkan GetInstanceProcAddress is nil")
