// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import "github.com/google/uuid"

// NewSessionID returns a UUIDv7 identifying a session.
//
// A session is the lifetime of one [context.TypingContext] chain produced
// by repeated reduction; every context reduced from it keeps the same id.
// [simulate.Simulator] runs carry no id. A session can fail or diverge in
// ways worth correlating across log lines, mirroring
// how a span ID correlates the log lines of one network operation.
//
// This function panics if the system random number generator fails, which
// should only happen under extraordinary circumstances.
func NewSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id.String()
}
