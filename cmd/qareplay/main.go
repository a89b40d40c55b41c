package main

import (
	"context"

	"qareplay/cmd/qareplay/commands"
	"qareplay/lib/telemetry"
)

func main() {
	ctx := context.Background()
	telemetry.InitSlog(false)
	telemetry.SetupFromEnv(ctx, "qareplay")
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}
