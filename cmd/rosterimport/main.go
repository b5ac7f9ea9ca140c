// Command rosterimport imports student rosters from spreadsheets into the
// student store, or renders them as a re-runnable SQL script.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/RosterImport/internal/core"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// reportError logs err and prints the operator message for it. Errors without
// a specific message also get their technical text printed.
func reportError(w io.Writer, err error) {
	ue := core.NewUserError(err)
	slog.Error("rosterimport failed", "error", ue.Technical, "code", ue.User.Code)

	if !core.IsUserFacing(err) {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	fmt.Fprintln(w, core.FormatUserError(err))
}
