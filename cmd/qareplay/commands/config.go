package commands

import (
	"context"

	"qareplay/lib/configutil"
	"qareplay/lib/notify"
	"qareplay/lib/qaclient"
	"qareplay/lib/restyutil"
)

type Config struct {
	ApiKey       string            `json:"api_key"`
	ApiUrl       string            `json:"api_url"`
	AssignmentId int               `json:"assignment_id"`
	Smtp         notify.SmtpConfig `json:"smtp"`
	NotifyTo     []string          `json:"notify_to"`
}

func createClient(ctx context.Context) (*qaclient.Client, Config) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		fatal("failed to read config.json5", err)
	}

	var debugOutput restyutil.InstrumentOutput
	if *debugHttp {
		debugOutput = restyutil.NewFilesystemOutput(".dev/resty/qareplay")
	}

	client, err := qaclient.NewClient(ctx, qaclient.Options{
		ApiKey:       cfg.ApiKey,
		ApiUrl:       cfg.ApiUrl,
		AssignmentId: cfg.AssignmentId,
		DebugOutput:  debugOutput,
	})
	if err != nil {
		fatal("failed to initialize QA client", err)
	}
	return client, cfg
}
