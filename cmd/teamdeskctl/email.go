package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var sendTestCmd = &cobra.Command{
	Use:   "send-test <recipient>",
	Short: "Send a test email through the server's configured provider",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body, _ := json.Marshal(map[string]string{"recipient": args[0]})

		resp, err := http.Post(serverURL()+"/api/email/send-test", "application/json", bytes.NewBuffer(body))
		if err != nil {
			fmt.Printf("Error connecting to server: %v\n", err)
			return
		}
		defer resp.Body.Close()

		var result struct {
			Success   bool   `json:"success"`
			MessageID string `json:"messageId"`
			Error     string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&result)

		if !result.Success {
			fmt.Printf("Send failed: %s\n", result.Error)
			return
		}
		fmt.Printf("Test email sent. Message ID: %s\n", result.MessageID)
	},
}

var sendReportCmd = &cobra.Command{
	Use:   "send-report",
	Short: "Trigger the scheduled activity report immediately",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Post(serverURL()+"/api/email/send-activity-report", "application/json", nil)
		if err != nil {
			fmt.Printf("Error connecting to server: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			var result struct {
				Error string `json:"error"`
			}
			json.NewDecoder(resp.Body).Decode(&result)
			fmt.Printf("Report failed: %s\n", result.Error)
			return
		}
		fmt.Println("Report sent.")
	},
}

func init() {
	rootCmd.AddCommand(sendTestCmd)
	rootCmd.AddCommand(sendReportCmd)
}
