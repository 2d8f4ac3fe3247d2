// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regio provides register access backends for DRM controllers.
//
// Each backend exposes Read and Write methods whose method values can be
// handed to hwkit.New.
package regio // import "github.com/Accelize/drm-sub002/regio"

import (
	"fmt"
)

func checkAligned(pkg string, off uint32) error {
	if off%4 != 0 {
		return fmt.Errorf("%s: unaligned register offset 0x%x", pkg, off)
	}
	return nil
}
