package main

import (
	"context"
)

// riskDigest emails the 30-day at-risk students report to all active teachers.
func (cli *commandLine) riskDigest() error {
	return cli.anlSvc.SendRiskDigest(context.Background())
}
