package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Manage user credit balances",
}

var creditsGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Add credits to a user's balance",
	RunE:  runCreditsGrant,
}

var creditsBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show a user's credit balance",
	RunE:  runCreditsBalance,
}

func init() {
	rootCmd.AddCommand(creditsCmd)
	creditsCmd.AddCommand(creditsGrantCmd, creditsBalanceCmd)

	creditsGrantCmd.Flags().String("user", "", "user ID")
	creditsGrantCmd.Flags().Int("amount", 0, "credits to add")
	_ = creditsGrantCmd.MarkFlagRequired("user")
	_ = creditsGrantCmd.MarkFlagRequired("amount")

	creditsBalanceCmd.Flags().String("user", "", "user ID")
	_ = creditsBalanceCmd.MarkFlagRequired("user")
}

func runCreditsGrant(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	user, _ := cmd.Flags().GetString("user")
	amount, _ := cmd.Flags().GetInt("amount")

	if err := a.ledger.Grant(user, amount); err != nil {
		return err
	}

	balance, err := a.ledger.Balance(user)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d credits\n", user, balance)
	return nil
}

func runCreditsBalance(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	user, _ := cmd.Flags().GetString("user")

	balance, err := a.ledger.Balance(user)
	if err != nil {
		return err
	}
	trialUsed, err := a.ledger.FreeTrialUsed(user)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d credits, free trial used: %v\n", user, balance, trialUsed)
	return nil
}
