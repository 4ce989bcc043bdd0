package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/ignite/phish-metrics/internal/datanorm"
	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/pkg/logger"
	"github.com/ignite/phish-metrics/internal/snapshot"
)

// TestMain keeps log lines out of command output.
func TestMain(m *testing.M) {
	logger.SetOutput(&bytes.Buffer{})
	os.Exit(m.Run())
}

// execute runs rootCmd with args after resetting every flag, since the
// flag variables are package-level and survive between runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

var sent = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func str(s string) *string { return &s }

// writeSalesSnapshot stores the Sales example: two Sales recipients who
// were sent, one of whom submitted and reported, and one IT recipient.
func writeSalesSnapshot(t *testing.T) string {
	t.Helper()
	later := sent.Add(72 * time.Hour)
	ds := &datanorm.Dataset{
		Results: []domain.ResultRow{
			{CampaignID: 1, CampaignName: "Q1", TemplateName: str("Password Reset"), Status: domain.StatusSubmitted,
				SendDate: &sent, Reported: true, Email: "a@x.com", Position: "Sales"},
			{CampaignID: 1, CampaignName: "Q1", TemplateName: str("Password Reset"), Status: domain.StatusOpened,
				SendDate: &sent, Email: "b@x.com", Position: "Sales"},
			{CampaignID: 2, CampaignName: "Q2", TemplateName: str("Invoice"), Status: domain.StatusSent,
				SendDate: &later, Email: "c@x.com", Position: "IT"},
		},
		Events: []domain.EventRow{
			{CampaignID: 1, CampaignName: "Q1", Email: "a@x.com", Time: sent, Message: domain.StatusSent},
			{CampaignID: 1, CampaignName: "Q1", Email: "b@x.com", Time: sent, Message: domain.StatusSent},
			{CampaignID: 2, CampaignName: "Q2", Email: "c@x.com", Time: later, Message: domain.StatusSent},
		},
	}
	dir := t.TempDir()
	require.NoError(t, snapshot.NewLocalStore(dir).Save(context.Background(), ds))
	return dir
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
