package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"crowdfund/internal/bootstrap"
	"crowdfund/internal/infra"
)

func main() {
	var (
		payoutFlag  bool
		timeoutFlag time.Duration
	)
	flag.BoolVar(&payoutFlag, "payout", false, "also pay out every funded APPROVED milestone")
	flag.DurationVar(&timeoutFlag, "timeout", time.Minute, "overall deadline")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger(infra.EnvCLI).With().Str("cmd", "reconcile").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	led, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open ledger: %v\n", err)
		os.Exit(1)
	}
	defer led.Close()

	report, err := led.Service.Reconcile(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconcile failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("milestones marked paid: %v\n", report.MilestonesMarkedPaid)
	for _, d := range report.CampaignsRepaired {
		fmt.Printf("campaign %d amountRaised %d -> %d\n", d.CampaignID, d.Stored, d.Computed)
	}
	fmt.Printf("campaigns completed: %v\n", report.CampaignsCompleted)

	if payoutFlag {
		n, err := led.Service.PayoutApproved(ctx, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "payout failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("milestones paid: %d\n", n)
	}
}
