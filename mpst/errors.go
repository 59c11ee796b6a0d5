// SPDX-License-Identifier: GPL-3.0-or-later

package mpst

import "github.com/mpst-go/mpst/pipeline"

// ErrProtocolInvalid is returned by [Toolchain.RequireValid] when
// [verify.Verify] reports the protocol is not structurally valid.
const ErrProtocolInvalid pipeline.Code = "protocol-invalid"
