package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	token   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "corebank-cli",
		Short: "CoreBank CLI tool",
		Long:  `A command line interface for interacting with the CoreBank API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the CoreBank API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("COREBANK_TOKEN"), "Session token (or COREBANK_TOKEN env var)")

	loginCmd := &cobra.Command{
		Use:   "login <account-id> <pin>",
		Short: "Authenticate and print a session token",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			login(args[0], args[1])
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show the account balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			balance(args[0])
		},
	}

	transferCmd := &cobra.Command{
		Use:   "transfer <destination-id> <amount>",
		Short: "Transfer funds from your account",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			transfer(args[0], args[1], cmd.Flag("idempotency-key").Value.String())
		},
	}
	transferCmd.Flags().String("idempotency-key", "", "Idempotency key for safe retries")

	statementCmd := &cobra.Command{
		Use:   "statement <account-id>",
		Short: "Show recent ledger entries, most recent first",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			statement(args[0])
		},
	}

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	checkCmd := &cobra.Command{
		Use:   "check <account-id>",
		Short: "Check account balance against the ledger",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency(args[0])
		},
	}

	ledgerCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(loginCmd, balanceCmd, transferCmd, statementCmd, ledgerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func login(accountID, pin string) {
	body := doRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"account_id": accountID,
		"pin":        pin,
	})

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Logged in as %s\n", accountID)
	fmt.Printf("export COREBANK_TOKEN=%s\n", result["token"])
}

func balance(accountID string) {
	body := doRequest(http.MethodGet, "/api/v1/accounts/"+accountID+"/balance", nil)

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Balance: %s\n", result["balance"])
}

func transfer(destinationID, amount, idempotencyKey string) {
	req := newRequest(http.MethodPost, "/api/v1/transfers", map[string]string{
		"destination_id": destinationID,
		"amount":         amount,
	})
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	body, status := send(req)
	if status >= 300 {
		fmt.Printf("Transfer FAILED (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Transfer %s\n", result["state"])
	fmt.Printf("Source balance: %s\n", result["source_balance"])
}

func statement(accountID string) {
	body := doRequest(http.MethodGet, "/api/v1/accounts/"+accountID+"/statement", nil)

	var entries []map[string]any
	if err := json.Unmarshal(body, &entries); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No transactions found")
		return
	}

	for _, e := range entries {
		fmt.Printf("%-8s %12s  %-30s balance: %s\n", e["kind"], e["amount"], e["description"], e["closing_balance"])
	}
}

func checkConsistency(accountID string) {
	body := doRequest(http.MethodGet, "/internal/reconciliation/accounts/"+accountID, nil)

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if consistent, ok := result["consistent"].(bool); ok && consistent {
		fmt.Println("Consistency check PASSED")
	} else {
		fmt.Println("Consistency check FAILED")
	}
	fmt.Printf("Balance: %s\n", result["balance"])
	if closing, ok := result["closing_balance"].(string); ok {
		fmt.Printf("Latest ledger closing balance: %s\n", closing)
	}
}

func newRequest(method, path string, payload any) *http.Request {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

func send(req *http.Request) ([]byte, int) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return body, resp.StatusCode
}

func doRequest(method, path string, payload any) []byte {
	body, status := send(newRequest(method, path, payload))
	if status >= 300 {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	return body
}
