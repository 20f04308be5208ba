// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"github.com/acekeeper/acekeeper/internal/logging"
)

// quitSequelAce asks Sequel Ace to quit before the favorites file is
// rewritten, so the app does not overwrite the restored file on exit.
// Best effort: a failure only logs, the operation proceeds regardless.
func quitSequelAce() {
	if runtime.GOOS != "darwin" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/usr/bin/osascript", "-e", `tell application "Sequel Ace" to quit`)
	if err := cmd.Run(); err != nil {
		logging.Debugf("could not quit Sequel Ace: %v", err)
		return
	}
	// Give the app a moment to flush its preferences on the way out.
	time.Sleep(time.Second)
}
